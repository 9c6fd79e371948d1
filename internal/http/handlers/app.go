package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"promptsmith/internal/domain"
	"promptsmith/internal/domain/catalog"
	"promptsmith/internal/infra"
)

// BundleGenerator compiles a request into accepted bundles and persists them.
type BundleGenerator interface {
	Generate(ctx context.Context, req domain.GenerateRequest) ([]domain.PromptBundle, error)
}

// CatalogReloader swaps in a freshly loaded catalog.
type CatalogReloader interface {
	Current() *catalog.Catalog
	Reload() (*catalog.Catalog, error)
}

type App struct {
	Generator BundleGenerator
	Store     domain.BundleRepository
	Catalogs  CatalogReloader
	Metrics   *infra.Metrics
	Logger    zerolog.Logger
}

func NewApp(generator BundleGenerator, store domain.BundleRepository, catalogs CatalogReloader, logger zerolog.Logger) *App {
	return &App{Generator: generator, Store: store, Catalogs: catalogs, Logger: logger}
}

type errorBody struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Attempts int      `json:"attempts,omitempty"`
	Failures []string `json:"failures,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// log returns the request-scoped logger installed by the logging
// middleware, falling back to the app logger.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}
