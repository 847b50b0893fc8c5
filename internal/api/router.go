package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/workstreamlabs/retrieval/internal/api/handlers"
	"github.com/workstreamlabs/retrieval/internal/api/middleware"
	"github.com/workstreamlabs/retrieval/internal/document"
	"github.com/workstreamlabs/retrieval/internal/queue"
	"github.com/workstreamlabs/retrieval/internal/retrieval"
	"github.com/workstreamlabs/retrieval/internal/suggest"
)

type Router struct {
	mux         *chi.Mux
	db          *pgxpool.Pool
	redis       *redis.Client
	coordinator *retrieval.Coordinator
	documents   *document.Service
	suggestions *suggest.Service
	queue       *queue.Client
}

// NewRouter takes fully constructed services; main owns the wiring so
// the same routes can run against any store backend.
func NewRouter(coordinator *retrieval.Coordinator, documents *document.Service, suggestions *suggest.Service, qc *queue.Client, db *pgxpool.Pool, rdb *redis.Client) *Router {
	return &Router{
		mux:         chi.NewRouter(),
		db:          db,
		redis:       rdb,
		coordinator: coordinator,
		documents:   documents,
		suggestions: suggestions,
		queue:       qc,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	// Health endpoints (no org scope)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Organization)

		retrievalH := handlers.NewRetrievalHandler(rt.coordinator, rt.queue)
		r.Route("/index", func(r chi.Router) {
			r.Post("/", retrievalH.Index)
			r.Post("/batch", retrievalH.IndexBatch)
			r.Post("/async", retrievalH.IndexAsync)
			r.Post("/rebuild", retrievalH.Rebuild)
			r.Delete("/{entityType}/{entityID}", retrievalH.Remove)
		})
		r.Post("/retrieve", retrievalH.Retrieve)
		r.Post("/embeddings", retrievalH.Embeddings)
		r.Get("/provider", retrievalH.Provider)

		// Document persistence needs the postgres backend.
		if rt.documents != nil {
			docH := handlers.NewDocumentHandler(rt.documents, rt.coordinator, rt.queue)
			r.Route("/documents", func(r chi.Router) {
				r.Post("/", docH.Upload)
				r.Get("/", docH.List)
				r.Get("/{id}", docH.Get)
				r.Get("/{id}/chunks", docH.Chunks)
				r.Delete("/{id}", docH.Delete)
			})
		}

		suggestH := handlers.NewSuggestHandler(rt.suggestions)
		r.Post("/suggest", suggestH.Suggest)
	})

	return r
}
