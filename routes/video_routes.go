package routes

import (
	"github.com/gorilla/mux"

	"amplify_server/config"
	"amplify_server/controllers"
	"amplify_server/logger"
	"amplify_server/middleware"
)

// RegisterVideoRoutes sets up the video library under /api/videos and the thumbnail
// redirect under /uploads/thumbnails
func RegisterVideoRoutes(r *mux.Router, content controllers.ContentAPI, auth *middleware.Auth, uploads config.UploadConfig, log logger.Logger) {
	controller := controllers.NewVideoController(content, uploads, log)

	videoRouter := r.PathPrefix("/api/videos").Subrouter()

	videoRouter.HandleFunc("/types", controller.GetTypes).Methods("GET")
	videoRouter.HandleFunc("", controller.ListVideos).Methods("GET")
	videoRouter.Handle("", auth.RequireFunc(controller.UploadVideo)).Methods("POST")

	videoRouter.Handle("/{id}", auth.OptionalFunc(controller.GetVideo)).Methods("GET")
	videoRouter.Handle("/{id}", auth.RequireFunc(controller.UpdateVideo)).Methods("PUT")
	videoRouter.Handle("/{id}", auth.RequireFunc(controller.DeleteVideo)).Methods("DELETE")
	videoRouter.HandleFunc("/{id}/stream", controller.StreamVideo).Methods("GET")
	videoRouter.Handle("/{id}/thumbnail", auth.RequireFunc(controller.UploadThumbnail)).Methods("POST")
	videoRouter.Handle("/{id}/like", auth.RequireFunc(controller.ToggleLike)).Methods("POST")
	videoRouter.HandleFunc("/{id}/comments", controller.ListComments).Methods("GET")
	videoRouter.Handle("/{id}/comments", auth.RequireFunc(controller.AddComment)).Methods("POST")
	videoRouter.Handle("/{id}/transcribe", auth.RequireFunc(controller.Transcribe)).Methods("POST")

	r.HandleFunc("/uploads/thumbnails/{name}", controller.ServeThumbnail).Methods("GET")
}
