package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hoshizora-fansub/hoshizora/internal/auth"
	"github.com/hoshizora-fansub/hoshizora/internal/episodes"
	"github.com/hoshizora-fansub/hoshizora/internal/grants"
	"github.com/hoshizora-fansub/hoshizora/internal/observability"
	"github.com/hoshizora-fansub/hoshizora/internal/posts"
	"github.com/hoshizora-fansub/hoshizora/internal/projects"
	"github.com/hoshizora-fansub/hoshizora/internal/shared"
	"github.com/hoshizora-fansub/hoshizora/internal/users"
	"github.com/hoshizora-fansub/hoshizora/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          grants.Guard

	AuthHandler     *auth.Handler
	PostsHandler    *posts.Handler
	ProjectsHandler *projects.Handler
	EpisodesHandler *episodes.Handler
	UsersHandler    *users.Handler
	JobsHandler     *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router for the dashboard API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(params.Guard.RequireAuthenticated)
			params.AuthHandler.MountSessionRoutes(r)
		})
	})

	// Capability enforcement lives inside each handler's MountRoutes via
	// the guard, and again in the services. The paths mirror the
	// dashboard's route table.
	r.Route("/dashboard", func(r chi.Router) {
		r.Route("/posts", params.PostsHandler.MountRoutes)
		r.Route("/projetos", func(r chi.Router) {
			params.ProjectsHandler.MountRoutes(r)
			r.Route("/{projectID}/episodios", params.EpisodesHandler.MountRoutes)
		})
		r.Route("/usuarios", params.UsersHandler.MountRoutes)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
