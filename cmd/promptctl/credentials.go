package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"promptsmith/internal/infra"
	"promptsmith/internal/infra/credentials"
)

func newCredentialsCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage provider API keys stored in Postgres",
		// Only needs the database, not a working provider.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			infra.LoadDotEnv(st.envFile)
			return nil
		},
	}

	var (
		provider string
		key      string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Store the API key for a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider = strings.ToLower(strings.TrimSpace(provider))
			if strings.TrimSpace(key) == "" {
				key = os.Getenv(strings.ToUpper(provider) + "_API_KEY")
			}
			dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
			if dbURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			pool, err := infra.NewDBPool(ctx, dbURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := infra.NewCLILogger(os.Getenv("APP_ENV")).With().Str("cmd", "credentials").Str("provider", provider).Logger()
			store := credentials.NewStore(infra.NewSQLRunner(pool, logger))
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}
			if err := store.SetAPIKey(ctx, provider, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s API key stored\n", strings.ToUpper(provider))
			return nil
		},
	}
	set.Flags().StringVar(&provider, "provider", credentials.ProviderOpenAI, "provider to configure (openai, gemini, anthropic)")
	set.Flags().StringVar(&key, "key", "", "API key; defaults to <PROVIDER>_API_KEY from the environment")

	cmd.AddCommand(set)
	return cmd
}
