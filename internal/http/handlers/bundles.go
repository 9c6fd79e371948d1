package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"promptsmith/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxRequestBytes  = 64 << 10
)

type bundlesResponse struct {
	Bundles []domain.PromptBundle `json:"bundles"`
}

// CreateBundles runs the compile loop and stores the accepted batch.
func (a *App) CreateBundles(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	bundles, err := a.Generator.Generate(r.Context(), req)
	if err != nil {
		a.generateError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, bundlesResponse{Bundles: bundles})
}

func (a *App) generateError(w http.ResponseWriter, r *http.Request, err error) {
	var exhausted *domain.ExhaustedRetriesError
	var genErr *domain.GenerationError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.As(err, &exhausted):
		failures := make([]string, 0, len(exhausted.Failures()))
		for _, f := range exhausted.Failures() {
			failures = append(failures, f.String())
		}
		a.json(w, http.StatusUnprocessableEntity, map[string]errorBody{"error": {
			Code:     "validation_exhausted",
			Message:  "no attempt passed validation",
			Attempts: exhausted.Attempts,
			Failures: failures,
		}})
	case errors.As(err, &genErr):
		a.log(r).Warn().Err(err).Str("provider", genErr.Provider).Msg("generation failed")
		a.error(w, http.StatusBadGateway, "generation_failed", "text generation provider failed")
	case errors.Is(err, domain.ErrConfiguration):
		a.log(r).Error().Err(err).Msg("configuration error")
		a.error(w, http.StatusInternalServerError, "configuration", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.error(w, http.StatusServiceUnavailable, "canceled", "request canceled")
	default:
		a.log(r).Error().Err(err).Msg("generate bundles")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// ListBundles returns stored bundles newest first.
func (a *App) ListBundles(w http.ResponseWriter, r *http.Request) {
	filter := domain.BundleFilter{Limit: defaultListLimit}
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		filter.Limit = min(n, maxListLimit)
	}
	if raw := strings.TrimSpace(q.Get("unused")); raw != "" {
		unused, err := strconv.ParseBool(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "unused must be a boolean")
			return
		}
		filter.UnusedOnly = unused
	}

	bundles, err := a.Store.List(r.Context(), filter)
	if err != nil {
		a.log(r).Error().Err(err).Msg("list bundles")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	if bundles == nil {
		bundles = []domain.PromptBundle{}
	}
	a.json(w, http.StatusOK, bundlesResponse{Bundles: bundles})
}

func (a *App) GetBundle(w http.ResponseWriter, r *http.Request) {
	b, err := a.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, b)
}

type setUsedRequest struct {
	Used *bool `json:"used"`
}

// SetBundleUsed flips the used flag. A body is optional; without one the
// bundle is marked used.
func (a *App) SetBundleUsed(w http.ResponseWriter, r *http.Request) {
	used := true
	var body setUsedRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&body)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	case body.Used != nil:
		used = *body.Used
	}

	b, err := a.Store.SetUsed(r.Context(), chi.URLParam(r, "id"), used)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, b)
}

func (a *App) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "bundle not found")
		return
	}
	a.log(r).Error().Err(err).Msg("bundle store")
	a.error(w, http.StatusInternalServerError, "internal", "internal error")
}
