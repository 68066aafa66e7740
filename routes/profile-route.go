package routes

import (
	"profile-service/config"
	"profile-service/handlers"
	"profile-service/middleware"

	"github.com/gorilla/mux"
)

func SetupRoutes(cfg config.Config, profileHandler *handlers.ProfileHandler) *mux.Router {
	router := mux.NewRouter()
	withIdentity := middleware.IdentityMiddleware(cfg.Identity)

	router.Handle("/userData", withIdentity(middleware.ErrorHandler(profileHandler.GetUserDataHandler))).Methods("GET")
	router.Handle("/userData", withIdentity(middleware.ErrorHandler(profileHandler.PostUserDataHandler))).Methods("POST")
	router.Handle("/userData/test", middleware.ErrorHandler(profileHandler.PostTestHandler)).Methods("POST")
	router.HandleFunc("/health", handlers.HealthHandler).Methods("GET")

	return router
}
