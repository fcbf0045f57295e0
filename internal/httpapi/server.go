// Package httpapi exposes internal/vstore.VectorDB as the thin HTTP shell
// spec.md §6 describes: one route per table row, each handler decoding a
// request, calling exactly one VectorDB method, and mapping any returned
// error to a status code via statusForErr. No business logic lives here.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vectorlite/vectorlite/internal/auth"
	"github.com/vectorlite/vectorlite/internal/telemetry"
	"github.com/vectorlite/vectorlite/internal/vstore"
)

// Config configures the HTTP shell.
type Config struct {
	// CORSOrigins lists allowed cross-origin request origins.
	CORSOrigins []string
	// Metrics records per-search latency/zero-result telemetry when set.
	// Nil disables telemetry recording entirely.
	Metrics *telemetry.SearchMetrics
}

// Server wires HTTP handlers to a VectorDB instance.
type Server struct {
	db      *vstore.VectorDB
	router  http.Handler
	log     *slog.Logger
	metrics *telemetry.SearchMetrics
}

// New constructs a Server over db.
func New(db *vstore.VectorDB, cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{db: db, router: mux, log: log, metrics: cfg.Metrics}

	mux.Get("/healthz", s.handleHealth)

	mux.Route("/libraries", func(r chi.Router) {
		r.Post("/", s.handleCreateLibrary)
		r.Get("/", s.handleListLibraries)

		r.Route("/{libraryID}", func(r chi.Router) {
			r.Get("/", s.handleGetLibrary)
			r.Delete("/", s.handleDeleteLibrary)

			r.Post("/index", s.handleBuildIndex)
			r.Get("/index", s.handleIndexStatus)
			r.Post("/search", s.handleSearch)

			r.Route("/documents", func(r chi.Router) {
				r.Post("/", s.handleCreateDocument)
				r.Get("/", s.handleListDocuments)
				r.Route("/{documentID}", func(r chi.Router) {
					r.Get("/", s.handleGetDocument)
					r.Delete("/", s.handleDeleteDocument)
				})
			})

			r.Route("/chunks", func(r chi.Router) {
				r.Post("/", s.handleCreateChunk)
				r.Get("/", s.handleListChunks)
				r.Route("/{chunkID}", func(r chi.Router) {
					r.Get("/", s.handleGetChunk)
					r.Patch("/", s.handleUpdateChunk)
					r.Delete("/", s.handleDeleteChunk)
				})
			})
		})
	})

	mux.Route("/snapshots", func(r chi.Router) {
		r.Post("/", s.handleCreateSnapshot)
		r.Get("/", s.handleListSnapshots)
		r.Route("/{name}", func(r chi.Router) {
			r.Post("/restore", s.handleRestoreSnapshot)
			r.Delete("/", s.handleForgetSnapshot)
		})
	})

	return s
}

// ServeHTTP lets Server satisfy http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cache":  s.db.CacheStats(),
	})
}

// claimsFromRequest extracts auth.Claims stashed on the request context by
// upstream authentication middleware. vectorlite does not perform
// authentication itself; an absent claims bag means an unauthenticated
// caller, which is sufficient for every non-admin route.
func claimsFromRequest(r *http.Request) auth.Claims {
	claims, _ := r.Context().Value(claimsContextKey{}).(auth.Claims)
	return claims
}

type claimsContextKey struct{}
