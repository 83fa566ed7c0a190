package routes

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"amplify_server/controllers"
)

// RegisterRoutes sets up the service endpoints that sit outside the API groups
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/health", controllers.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
	r.HandleFunc("/privacy-policy", PrivacyPolicyHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
