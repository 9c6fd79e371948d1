package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"promptsmith/internal/compiler"
	"promptsmith/internal/domain"
	"promptsmith/internal/infra"
	"promptsmith/internal/storage"
)

func testConfig(t *testing.T) *infra.Config {
	t.Helper()
	return &infra.Config{
		AppEnv:               "test",
		PersonaPath:          filepath.Join("..", "..", "config", "persona.yaml"),
		BankPath:             filepath.Join("..", "..", "config", "bank.yaml"),
		StoreBackend:         infra.StoreBackendJSONL,
		StorePath:            filepath.Join(t.TempDir(), "bundles.jsonl"),
		StoreMaxEntries:      50,
		TextgenProvider:      "openai",
		TextgenTimeout:       30 * time.Second,
		TextgenMaxRetries:    3,
		TextgenBackoffBase:   500 * time.Millisecond,
		TextgenTemperature:   0.9,
		OpenAIAPIKey:         "sk-test",
		OpenAIModel:          "gpt-4o-mini",
		PromptMinChars:       950,
		PromptMaxChars:       1200,
		FuzzyThreshold:       0.8,
		PoseAnchor:           "anywhere",
		PoseAnchorWindow:     40,
		MaxAttempts:          3,
		ImageWidth:           1080,
		ImageHeight:          1920,
		VideoDurationSeconds: 6,
	}
}

func TestNew_JSONLStore(t *testing.T) {
	cfg := testConfig(t)
	s, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.Controller == nil || s.Catalogs.Current() == nil || s.Metrics == nil {
		t.Fatalf("incomplete services: %+v", s)
	}
	bundleLog, ok := s.Store.(*storage.BundleLog)
	if !ok {
		t.Fatalf("store = %T, want *storage.BundleLog", s.Store)
	}
	if bundleLog.Path() != cfg.StorePath {
		t.Fatalf("store path = %q, want %q", bundleLog.Path(), cfg.StorePath)
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*infra.Config)
	}{
		{name: "missing persona", mutate: func(c *infra.Config) { c.PersonaPath = filepath.Join(t.TempDir(), "none.yaml") }},
		{name: "unknown backend", mutate: func(c *infra.Config) { c.StoreBackend = "redis" }},
		{name: "unknown provider", mutate: func(c *infra.Config) { c.TextgenProvider = "llama" }},
		{name: "missing key", mutate: func(c *infra.Config) { c.OpenAIAPIKey = "" }},
		{name: "bad pose anchor", mutate: func(c *infra.Config) { c.PoseAnchor = "section_end" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			_, err := New(context.Background(), cfg, zerolog.Nop())
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestClientOptions_Retries(t *testing.T) {
	tests := []struct {
		configured int
		want       int
	}{
		{configured: 0, want: -1},
		{configured: 1, want: 1},
		{configured: 3, want: 3},
	}
	for _, tt := range tests {
		cfg := testConfig(t)
		cfg.TextgenMaxRetries = tt.configured
		if got := ClientOptions(cfg, nil, nil).MaxRetries; got != tt.want {
			t.Fatalf("MaxRetries for %d = %d, want %d", tt.configured, got, tt.want)
		}
	}
}

func TestValidatorOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.PoseAnchor = "section_start"
	opts := ValidatorOptions(cfg)
	if opts.PoseAnchor != compiler.PoseAnchorSectionStart || opts.MinChars != 950 || opts.MaxChars != 1200 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
