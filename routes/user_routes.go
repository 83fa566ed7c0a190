package routes

import (
	"github.com/gorilla/mux"

	"amplify_server/controllers"
	"amplify_server/logger"
	"amplify_server/middleware"
)

// RegisterUserRoutes sets up profile and matching routes under /api/users
func RegisterUserRoutes(r *mux.Router, profiles controllers.ProfileAPI, content controllers.ContentAPI, matches controllers.MatchAPI, auth *middleware.Auth, log logger.Logger) {
	controller := controllers.NewUserController(profiles, content, matches, log)

	userRouter := r.PathPrefix("/api/users").Subrouter()

	// Fixed paths go before /{id} so they are not read as user IDs.
	userRouter.Handle("/matches/me", auth.RequireFunc(controller.GetMatches)).Methods("GET")
	userRouter.HandleFunc("/causes", controller.GetCauses).Methods("GET")
	userRouter.Handle("/profile", auth.RequireFunc(controller.UpdateProfile)).Methods("PUT")

	userRouter.HandleFunc("/{id}", controller.GetProfile).Methods("GET")
	userRouter.HandleFunc("/{id}/videos", controller.GetUserVideos).Methods("GET")
}
