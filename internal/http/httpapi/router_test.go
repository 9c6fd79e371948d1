package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"promptsmith/internal/domain"
	"promptsmith/internal/domain/catalog"
	"promptsmith/internal/http/handlers"
	"promptsmith/internal/infra"
	"promptsmith/internal/storage"
)

type stubGenerator struct {
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, req domain.GenerateRequest) ([]domain.PromptBundle, error) {
	g.calls++
	return []domain.PromptBundle{{ID: "generated", SettingID: req.SettingID}}, nil
}

type stubCatalogs struct {
	current   *catalog.Catalog
	reloadErr error
}

func (s *stubCatalogs) Current() *catalog.Catalog { return s.current }

func (s *stubCatalogs) Reload() (*catalog.Catalog, error) {
	if s.reloadErr != nil {
		return nil, s.reloadErr
	}
	return s.current, nil
}

func newTestServer(t *testing.T, opts RouterOptions) (*httptest.Server, *stubCatalogs, *stubGenerator) {
	t.Helper()

	store, err := storage.NewBundleLog(filepath.Join(t.TempDir(), "bundles.jsonl"), 10, nil)
	if err != nil {
		t.Fatalf("NewBundleLog: %v", err)
	}
	seed := []domain.PromptBundle{
		{ID: "old", SettingID: "kitchen", CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "new", SettingID: "rooftop", CreatedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
	}
	if err := store.Append(context.Background(), seed...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	catalogs := &stubCatalogs{current: &catalog.Catalog{
		Persona:  domain.Persona{Version: "v3", Age: 27, Subject: "woman"},
		LoadedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}}
	gen := &stubGenerator{}
	app := handlers.NewApp(gen, store, catalogs, zerolog.Nop())
	app.Metrics = infra.NewMetrics()

	srv := httptest.NewServer(NewRouter(app, opts))
	t.Cleanup(srv.Close)
	return srv, catalogs, gen
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBundle(t *testing.T, resp *http.Response) domain.PromptBundle {
	t.Helper()
	var b domain.PromptBundle
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		t.Fatalf("decode bundle: %v", err)
	}
	return b
}

func TestRouter_Health(t *testing.T) {
	srv, _, _ := newTestServer(t, RouterOptions{})

	resp := do(t, http.MethodGet, srv.URL+"/v1/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["persona_version"] != "v3" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestRouter_ListAndGet(t *testing.T) {
	srv, _, _ := newTestServer(t, RouterOptions{})

	resp := do(t, http.MethodGet, srv.URL+"/v1/bundles?limit=1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var list struct {
		Bundles []domain.PromptBundle `json:"bundles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Bundles) != 1 || list.Bundles[0].ID != "new" {
		t.Fatalf("expected newest bundle first, got %+v", list.Bundles)
	}

	resp = do(t, http.MethodGet, srv.URL+"/v1/bundles/old", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if b := decodeBundle(t, resp); b.SettingID != "kitchen" {
		t.Fatalf("unexpected bundle: %+v", b)
	}

	resp = do(t, http.MethodGet, srv.URL+"/v1/bundles/missing", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", resp.StatusCode)
	}
}

func TestRouter_SetUsedIsIdempotent(t *testing.T) {
	srv, _, _ := newTestServer(t, RouterOptions{})

	for i := 0; i < 2; i++ {
		resp := do(t, http.MethodPut, srv.URL+"/v1/bundles/new/used", `{"used":true}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("call %d: status = %d", i+1, resp.StatusCode)
		}
		if b := decodeBundle(t, resp); !b.Used {
			t.Fatalf("call %d: bundle not marked used", i+1)
		}
	}

	resp := do(t, http.MethodGet, srv.URL+"/v1/bundles?unused=true", "")
	var list struct {
		Bundles []domain.PromptBundle `json:"bundles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Bundles) != 1 || list.Bundles[0].ID != "old" {
		t.Fatalf("unused listing = %+v", list.Bundles)
	}

	resp = do(t, http.MethodPut, srv.URL+"/v1/bundles/new/used", `{"used":false}`)
	if b := decodeBundle(t, resp); b.Used {
		t.Fatal("expected used flag cleared")
	}

	resp = do(t, http.MethodPut, srv.URL+"/v1/bundles/missing/used", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", resp.StatusCode)
	}
}

func TestRouter_CatalogReload(t *testing.T) {
	srv, catalogs, _ := newTestServer(t, RouterOptions{})

	resp := do(t, http.MethodPost, srv.URL+"/v1/catalog/reload", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reload status = %d", resp.StatusCode)
	}

	catalogs.reloadErr = domain.NewConfigError("persona.yaml", "age must be positive")
	resp = do(t, http.MethodPost, srv.URL+"/v1/catalog/reload", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("failed reload status = %d, want 422", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, srv.URL+"/v1/persona", "")
	var p domain.Persona
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode persona: %v", err)
	}
	if p.Version != "v3" {
		t.Fatalf("persona version = %q, previous catalog should stay active", p.Version)
	}
}

func TestRouter_RateLimitsGeneration(t *testing.T) {
	srv, _, gen := newTestServer(t, RouterOptions{RateLimitPerMin: 1})

	body := `{"setting_id":"rooftop","count":1}`
	if resp := do(t, http.MethodPost, srv.URL+"/v1/bundles", body); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first status = %d, want 201", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, srv.URL+"/v1/bundles", body); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", resp.StatusCode)
	}
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.calls)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/v1/bundles", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("listing must not be rate limited, status = %d", resp.StatusCode)
	}
}

func TestRouter_MetricsAndDocs(t *testing.T) {
	srv, _, _ := newTestServer(t, RouterOptions{})

	resp := do(t, http.MethodGet, srv.URL+"/metrics", "")
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), "promptsmith_bundles_stored_total") {
		t.Fatalf("metrics status = %d, body missing counter", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, srv.URL+"/v1/openapi.json", "")
	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode openapi: %v", err)
	}
	if doc["openapi"] == nil {
		t.Fatal("openapi document missing version")
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	srv, _, _ := newTestServer(t, RouterOptions{})
	resp := do(t, http.MethodGet, srv.URL+"/v1/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
