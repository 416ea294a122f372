package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sheetstand/internal/content"
	"sheetstand/internal/handlers"
	"sheetstand/internal/metrics"
	"sheetstand/internal/service"
	"sheetstand/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Store    storage.Store
	Contents content.Store
	Catalog  *service.Catalog
	Registry *service.Registry
	Ordering *service.Ordering
	Metrics  *metrics.Metrics
}

// NewRouter creates the HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	sheets := handlers.NewSheetsHandler(deps.Catalog)
	setlists := handlers.NewSetlistsHandler(deps.Registry, deps.Ordering)
	notes := handlers.NewNotesHandler(deps.Registry)
	health := handlers.NewHealthHandler(deps.Store, deps.Contents)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sheets", func(r chi.Router) {
			r.Get("/", sheets.List)
			r.Post("/", sheets.Create)
			r.Get("/{id}", sheets.Get)
			r.Get("/{id}/content", sheets.Content)
			r.Delete("/{id}", sheets.Delete)
		})

		r.Route("/setlists", func(r chi.Router) {
			r.Get("/", setlists.List)
			r.Post("/", setlists.Create)
			r.Get("/{id}", setlists.Get)
			r.Put("/{id}", setlists.Update)
			r.Delete("/{id}", setlists.Delete)
			r.Post("/{id}/sheets", setlists.AppendSheet)
			r.Delete("/{id}/sheets/{sheetId}", setlists.RemoveSheet)
			r.Post("/{id}/sheets/move", setlists.MoveSheet)
		})

		r.Method(http.MethodGet, "/health", health)
	})

	r.Get("/setlists/{id}/notes", notes.ServeHTTP)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}
