package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/veccache/internal/api"
	"github.com/cloo-solutions/veccache/internal/api/handlers"
	"github.com/cloo-solutions/veccache/internal/api/middleware"
)

type RouterConfig struct {
	CacheHandler *handlers.CacheHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Search bodies carry raw query embeddings (1536 floats as JSON).
	const maxBodyBytes int64 = 10 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/scopes/{orgID}/{chatbotConfigID}", func(r chi.Router) {
		r.Post("/init", cfg.CacheHandler.Initialize)
		r.Post("/search", cfg.CacheHandler.Search)
		r.Get("/stats", cfg.CacheHandler.Stats)
		r.Get("/health", cfg.CacheHandler.Health)
		r.Get("/patterns", cfg.CacheHandler.AccessPatterns)
		r.Delete("/", cfg.CacheHandler.Clear)
	})

	return r
}
