package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Armolas/ajo-savings/pkg/coordinator"
	"github.com/Armolas/ajo-savings/pkg/funding"
	"github.com/Armolas/ajo-savings/pkg/handlers/actions"
	"github.com/Armolas/ajo-savings/pkg/handlers/groups"
	"github.com/Armolas/ajo-savings/pkg/middleware"
	"github.com/Armolas/ajo-savings/pkg/repository"
)

// NewRouter wires the resource handlers onto a chi router with the standard
// middleware stack.
func NewRouter(logger *slog.Logger, repo *repository.Repository, coord *coordinator.Coordinator, view *funding.View) *chi.Mux {
	groupsHandler := groups.NewGroupsHandler(repo, coord, view)
	actionsHandler := actions.NewActionsHandler(coord)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewStructuredLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupsHandler.ListGroups)
			r.Post("/", groupsHandler.CreateGroup)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", groupsHandler.GetGroup)
				r.Get("/cycle", groupsHandler.GetCycle)
				r.Get("/contributions/{address}", groupsHandler.GetContribution)
				r.Post("/contributions", actionsHandler.Contribute)
				r.Post("/claims", actionsHandler.Claim)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
