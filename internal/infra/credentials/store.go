// Package credentials keeps provider API keys in Postgres so deployments can
// rotate them without touching the environment.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"promptsmith/internal/infra"
	"promptsmith/internal/sqlinline"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

var ErrUnknownProvider = errors.New("credentials: unknown provider")

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QCreateProviderCredentials); err != nil {
		return fmt.Errorf("credentials: ensure schema: %w", err)
	}
	return nil
}

// APIKey returns the stored key, or "" when none is stored.
func (s *Store) APIKey(ctx context.Context, provider string) (string, error) {
	provider, err := normalizeProvider(provider)
	if err != nil {
		return "", err
	}
	var key string
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectProviderCredential, provider).Scan(&key); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("credentials: load %s key: %w", provider, err)
	}
	return strings.TrimSpace(key), nil
}

func (s *Store) SetAPIKey(ctx context.Context, provider, key string) error {
	provider, err := normalizeProvider(provider)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("credentials: %s api key is required", provider)
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertProviderCredential, provider, key); err != nil {
		return fmt.Errorf("credentials: store %s key: %w", provider, err)
	}
	return nil
}

func normalizeProvider(provider string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(provider))
	switch p {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
		return p, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownProvider, provider)
}
