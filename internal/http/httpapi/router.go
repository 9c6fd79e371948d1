package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"promptsmith/internal/http/handlers"
	"promptsmith/internal/middleware"
)

type RouterOptions struct {
	// RateLimitPerMin caps bundle generation per client IP. Zero disables it.
	RateLimitPerMin int
	AllowedOrigins  []string
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(app.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Method(http.MethodGet, "/metrics", app.MetricsHandler())

	r.Get("/v1/persona", app.Persona)
	r.Post("/v1/catalog/reload", app.ReloadCatalog)

	r.Route("/v1/bundles", func(r chi.Router) {
		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/", app.CreateBundles)
		r.Get("/", app.ListBundles)
		r.Get("/{id}", app.GetBundle)
		r.Put("/{id}/used", app.SetBundleUsed)
	})

	return r
}
