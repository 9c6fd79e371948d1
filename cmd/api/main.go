package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promptsmith/internal/bootstrap"
	"promptsmith/internal/http/handlers"
	httpapi "promptsmith/internal/http/httpapi"
	"promptsmith/internal/infra"
)

func main() {
	infra.LoadDotEnv()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to initialise services")
	}
	defer services.Close()

	app := handlers.NewApp(services.Controller, services.Store, services.Catalogs, logger)
	app.Metrics = services.Metrics

	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.CORSOrigins,
	})
	server := infra.NewHTTPServer(cfg, router)

	go reloadOnHangup(ctx, services, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("api listening")
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// reloadOnHangup re-reads the persona and bank files on SIGHUP. In-flight
// requests keep the catalog they started with.
func reloadOnHangup(ctx context.Context, services *bootstrap.Services, logger infra.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			c, err := services.Catalogs.Reload()
			if err != nil {
				logger.Error().Err(err).Msg("catalog reload failed, keeping previous catalog")
				continue
			}
			logger.Info().Str("persona_version", c.Persona.Version).Msg("catalog reloaded")
		}
	}
}
