package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"promptsmith/internal/bootstrap"
	"promptsmith/internal/infra"
)

type cliState struct {
	envFile  string
	services *bootstrap.Services
	logger   infra.Logger
}

func newRootCmd() *cobra.Command {
	st := &cliState{}
	root := &cobra.Command{
		Use:   "promptctl",
		Short: "Generate and manage persona prompt bundles",
		Long: `promptctl drives the bundle compiler without the HTTP API.

Configuration comes from the environment (and an optional .env file),
the same variables the API server reads.`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			st.close()
		},
	}
	root.PersistentFlags().StringVar(&st.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newGenerateCmd(st),
		newListCmd(st),
		newUsedCmd(st),
		newScheduleCmd(st),
		newExportCmd(st),
		newCredentialsCmd(st),
	)
	return root
}

func (st *cliState) open(ctx context.Context) error {
	infra.LoadDotEnv(st.envFile)
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	st.logger = infra.NewCLILogger(cfg.AppEnv)
	if ctx == nil {
		ctx = context.Background()
	}
	services, err := bootstrap.New(ctx, cfg, st.logger)
	if err != nil {
		return err
	}
	st.services = services
	return nil
}

func (st *cliState) close() {
	if st.services != nil {
		st.services.Close()
		st.services = nil
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
