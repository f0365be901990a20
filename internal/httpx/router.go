package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the full `/api/v1` HTTP surface of spec.md §6 over srv,
// protected by authToken on every route except /health.
func NewRouter(srv *Server, authToken string, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	srv.startedAt = time.Now()

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(recoverMiddleware(log))
	r.Use(requestLogMiddleware(log))

	r.Get("/health", srv.handleHealth)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authMiddleware(authToken, log))

		api.Post("/world/chunks", srv.handleIngestChunks)
		api.Post("/world/blocks", srv.handleIngestBlocks)
		api.Post("/world/players", srv.handleIngestPlayers)
		api.Post("/world/entities", srv.handleIngestEntities)
		api.Post("/world/queue/status", srv.handleQueueStatus)
		api.Post("/world/structures", srv.handleIngestStructures)
		api.Get("/world/structures", srv.handleListStructures)
		api.Get("/world/chunk/exists", srv.handleChunkExists)

		api.Get("/tiles/{dimension}/{mapType}/{zoom}/{x}/{z}.png", srv.handleGetTile)
		api.Delete("/tiles", srv.handleClearTiles)

		if srv.Hub != nil {
			api.Get("/ws", srv.Hub.ServeHTTP)
		}
	})

	return r
}
