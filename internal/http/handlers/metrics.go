package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the app's private registry. Without metrics the
// route answers 404.
func (a *App) MetricsHandler() http.Handler {
	if a.Metrics == nil || a.Metrics.Registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(a.Metrics.Registry, promhttp.HandlerOpts{})
}
