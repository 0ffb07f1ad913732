package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	analysishttp "github.com/meridian-fin/meridian/internal/analysis/http"
	cataloghttp "github.com/meridian-fin/meridian/internal/catalog/http"
	projectionshttp "github.com/meridian-fin/meridian/internal/projections/http"
	ratioshttp "github.com/meridian-fin/meridian/internal/ratios/http"
	"github.com/meridian-fin/meridian/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	CatalogHandler     *cataloghttp.Handler
	RatiosHandler      *ratioshttp.Handler
	AnalysisHandler    *analysishttp.Handler
	ProjectionsHandler *projectionshttp.Handler
	JobsHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if params.CatalogHandler != nil {
			r.Route("/catalog", func(r chi.Router) {
				params.CatalogHandler.MountRoutes(r)
			})
		}
		if params.RatiosHandler != nil {
			r.Route("/ratios", func(r chi.Router) {
				params.RatiosHandler.MountRoutes(r)
			})
		}
		if params.AnalysisHandler != nil {
			r.Route("/analysis", func(r chi.Router) {
				params.AnalysisHandler.MountRoutes(r)
			})
		}
		if params.ProjectionsHandler != nil {
			r.Route("/projections", func(r chi.Router) {
				params.ProjectionsHandler.MountRoutes(r)
			})
		}
		if params.JobsHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				params.JobsHandler.MountRoutes(r)
			})
		}
	})

	return r
}
