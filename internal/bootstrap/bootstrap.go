// Package bootstrap turns an infra.Config into the running object graph
// shared by the API server and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"promptsmith/internal/adapter/repo"
	"promptsmith/internal/compiler"
	"promptsmith/internal/domain"
	"promptsmith/internal/domain/catalog"
	"promptsmith/internal/infra"
	"promptsmith/internal/infra/credentials"
	"promptsmith/internal/providers/textgen"
	"promptsmith/internal/storage"
)

// Services is everything a binary needs to serve requests.
type Services struct {
	Config     *infra.Config
	Logger     infra.Logger
	Metrics    *infra.Metrics
	Catalogs   *catalog.Holder
	Store      domain.BundleRepository
	Controller *compiler.Controller

	pool    *pgxpool.Pool
	closers []func()
}

// New builds the catalog holder, bundle store, provider client and compile
// controller. Callers must Close the result.
func New(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Services, error) {
	s := &Services{Config: cfg, Logger: logger, Metrics: infra.NewMetrics()}

	holder, err := catalog.NewHolder(cfg.PersonaPath, cfg.BankPath)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load catalog: %w", err)
	}
	s.Catalogs = holder
	current := holder.Current()
	logger.Info().
		Str("persona_version", current.Persona.Version).
		Int("settings", len(current.Bank.Settings)).
		Msg("catalog loaded")
	if n, ok := compiler.PrefixWithinBudget(current.Persona); !ok {
		logger.Warn().
			Int("prefix_runes", n).
			Int("budget_min", compiler.PrefixBudgetMin).
			Int("budget_max", compiler.PrefixBudgetMax).
			Msg("persona prefix outside budget, continuation range shifts")
	}

	if err := s.openStore(ctx); err != nil {
		s.Close()
		return nil, err
	}

	providerCfg, err := s.providerConfig(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	completer, err := textgen.NewCompleter(providerCfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	client, err := textgen.NewClient(completer, s.clientOptions())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	validator, err := compiler.NewValidator(ValidatorOptions(cfg))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	controller, err := compiler.NewController(holder, client, validator, compiler.ControllerOptions{
		MaxAttempts:   cfg.MaxAttempts,
		Width:         cfg.ImageWidth,
		Height:        cfg.ImageHeight,
		VideoDuration: cfg.VideoDurationSeconds,
		Temperature:   cfg.TextgenTemperature,
		Logger:        &s.Logger,
		Metrics:       s.Metrics,
		Store:         s.Store,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	s.Controller = controller

	logger.Info().
		Str("provider", client.Provider()).
		Str("store", cfg.StoreBackend).
		Msg("services ready")
	return s, nil
}

// Close releases the store's resources.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func (s *Services) openStore(ctx context.Context) error {
	cfg := s.Config
	switch cfg.StoreBackend {
	case infra.StoreBackendPostgres:
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		s.pool = pool
		s.closers = append(s.closers, pool.Close)
		pg := repo.NewBundleRepository(pool, cfg.StoreMaxEntries, s.Logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		s.Store = pg
	case infra.StoreBackendJSONL, "":
		bundleLog, err := storage.NewBundleLog(cfg.StorePath, cfg.StoreMaxEntries, &s.Logger)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		s.Store = bundleLog
	default:
		return domain.NewConfigError("STORE_BACKEND", fmt.Sprintf("unsupported backend %q", cfg.StoreBackend))
	}
	return nil
}

// providerConfig fills a missing API key from the credentials table when a
// database is available.
func (s *Services) providerConfig(ctx context.Context) (textgen.ProviderConfig, error) {
	pc := ProviderConfig(s.Config)
	if s.pool == nil {
		return pc, nil
	}
	if pc.Provider == "" {
		pc.Provider = textgen.ProviderOpenAI
	}
	var key *string
	switch pc.Provider {
	case textgen.ProviderOpenAI:
		key = &pc.OpenAI.APIKey
	case textgen.ProviderGemini:
		key = &pc.Gemini.APIKey
	case textgen.ProviderAnthropic:
		key = &pc.Anthropic.APIKey
	default:
		return pc, nil
	}
	if *key != "" {
		return pc, nil
	}
	store := credentials.NewStore(infra.NewSQLRunner(s.pool, s.Logger))
	if err := store.EnsureSchema(ctx); err != nil {
		return pc, fmt.Errorf("bootstrap: %w", err)
	}
	stored, err := store.APIKey(ctx, pc.Provider)
	if err != nil {
		return pc, fmt.Errorf("bootstrap: %w", err)
	}
	if stored != "" {
		s.Logger.Info().Str("provider", pc.Provider).Msg("using provider key from credentials store")
	}
	*key = stored
	return pc, nil
}

func (s *Services) clientOptions() textgen.Options {
	return ClientOptions(s.Config, &s.Logger, s.Metrics)
}

// ClientOptions maps the network retry settings. TEXTGEN_MAX_RETRIES=0 means
// a single call, which the client spells as a negative count.
func ClientOptions(cfg *infra.Config, logger *infra.Logger, metrics *infra.Metrics) textgen.Options {
	retries := cfg.TextgenMaxRetries
	if retries == 0 {
		retries = -1
	}
	return textgen.Options{
		MaxRetries: retries,
		BaseDelay:  cfg.TextgenBackoffBase,
		Timeout:    cfg.TextgenTimeout,
		Logger:     logger,
		Metrics:    metrics,
	}
}

func ProviderConfig(cfg *infra.Config) textgen.ProviderConfig {
	return textgen.ProviderConfig{
		Provider: cfg.TextgenProvider,
		OpenAI: textgen.OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
		},
		Gemini: textgen.GeminiOptions{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		},
		Anthropic: textgen.AnthropicOptions{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.AnthropicModel,
			BaseURL:   cfg.AnthropicBaseURL,
			MaxTokens: cfg.AnthropicMaxTokens,
		},
	}
}

func ValidatorOptions(cfg *infra.Config) compiler.ValidatorOptions {
	return compiler.ValidatorOptions{
		MinChars:         cfg.PromptMinChars,
		MaxChars:         cfg.PromptMaxChars,
		FuzzyThreshold:   cfg.FuzzyThreshold,
		PoseAnchor:       compiler.PoseAnchor(cfg.PoseAnchor),
		PoseAnchorWindow: cfg.PoseAnchorWindow,
	}
}
