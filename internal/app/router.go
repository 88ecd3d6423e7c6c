package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campuslink/campuslink/internal/analytics"
	"github.com/campuslink/campuslink/internal/archived"
	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/nstp"
	"github.com/campuslink/campuslink/internal/observability"
	"github.com/campuslink/campuslink/internal/organizations"
	"github.com/campuslink/campuslink/internal/shared"
	"github.com/campuslink/campuslink/internal/views"
	"github.com/campuslink/campuslink/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler          *auth.Handler
	OrganizationsHandler *organizations.Handler
	NSTPHandler          *nstp.Handler
	ArchivedHandler      *archived.Handler
	ViewsHandler         *views.Handler
	AnalyticsHandler     *analytics.Handler
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with CampusLink defaults.
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

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.OrganizationsHandler != nil {
		r.Route("/organizations", params.OrganizationsHandler.MountRoutes)
	}
	if params.NSTPHandler != nil {
		r.Route("/nstp-files", params.NSTPHandler.MountRoutes)
	}
	if params.ArchivedHandler != nil {
		r.Route("/archived", params.ArchivedHandler.MountRoutes)
	}
	if params.ViewsHandler != nil {
		r.Route("/tabs", params.ViewsHandler.MountRoutes)
	}
	if params.AnalyticsHandler != nil {
		r.Route("/analytics", params.AnalyticsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
