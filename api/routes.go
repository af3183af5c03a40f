package api

import (
	"net/http"

	"github.com/Eduard289/cinematrix-cloud/handlers"

	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type tokenValidator interface {
	Validate(token string) error
}

// requireSession rejects requests that do not carry a valid session token.
func requireSession(sessions tokenValidator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sessions.Validate(handlers.SessionToken(r)); err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	sessions tokenValidator,
	authHandler *handlers.AuthHandler,
	catalogHandler *handlers.CatalogHandler,
	streamsHandler *handlers.StreamsHandler,
	downloadHandler *handlers.DownloadHandler,
	historyHandler *handlers.HistoryHandler,
	settingsHandler *handlers.SettingsHandler,
	versionHandler *handlers.VersionHandler,
) {
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(corsMiddleware)

	// Reachable without a session.
	apiRouter.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/version", versionHandler.Get).Methods(http.MethodGet, http.MethodOptions)

	protected := apiRouter.NewRoute().Subrouter()
	protected.Use(requireSession(sessions))

	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet, http.MethodOptions)

	protected.HandleFunc("/catalog/search", catalogHandler.Search).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/streams/{imdbID}", streamsHandler.List).Methods(http.MethodGet, http.MethodOptions)

	protected.HandleFunc("/downloads", downloadHandler.Start).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/downloads/{jobID}", downloadHandler.Delete).Methods(http.MethodDelete, http.MethodOptions)

	protected.HandleFunc("/history", historyHandler.List).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/history", historyHandler.Purge).Methods(http.MethodDelete, http.MethodOptions)
	protected.HandleFunc("/history/{itemID}", historyHandler.Delete).Methods(http.MethodDelete, http.MethodOptions)

	protected.HandleFunc("/settings", settingsHandler.GetSettings).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/settings", settingsHandler.PutSettings).Methods(http.MethodPut, http.MethodOptions)
}
