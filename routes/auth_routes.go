package routes

import (
	"github.com/gorilla/mux"

	"amplify_server/controllers"
	"amplify_server/logger"
	"amplify_server/middleware"
)

// RegisterAuthRoutes sets up account and session routes under /api/auth
func RegisterAuthRoutes(r *mux.Router, authService controllers.AuthAPI, auth *middleware.Auth, frontendURL string, log logger.Logger) {
	controller := controllers.NewAuthController(authService, frontendURL, log)

	authRouter := r.PathPrefix("/api/auth").Subrouter()

	authRouter.HandleFunc("/register", controller.Register).Methods("POST")
	authRouter.HandleFunc("/login", controller.Login).Methods("POST")
	authRouter.HandleFunc("/forgot-password", controller.ForgotPassword).Methods("POST")
	authRouter.HandleFunc("/reset-password", controller.ResetPassword).Methods("POST")

	authRouter.Handle("/me", auth.RequireFunc(controller.Me)).Methods("GET")
	authRouter.Handle("/change-password", auth.RequireFunc(controller.ChangePassword)).Methods("PUT")
	authRouter.Handle("/update-email", auth.RequireFunc(controller.UpdateEmail)).Methods("PUT")
	authRouter.Handle("/account", auth.RequireFunc(controller.DeleteAccount)).Methods("DELETE")
}
