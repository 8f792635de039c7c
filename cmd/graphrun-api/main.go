// graphrun-api — HTTP API для запуска workflow-файлов.
//
// Использование:
//
//	graphrun-api [--config FILE]
//
// Переменные окружения: API_PORT, WORKFLOWS_DIR, SUMMARIES_DIR, DB_URL,
// RABBITMQ_URL, REDIS_ADDR, TOOL_TIMEOUT, TRACE_STDOUT, LOG_LEVEL, LOG_FORMAT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/graphrun/internal/api"
	"github.com/shaiso/graphrun/internal/bootstrap"
	"github.com/shaiso/graphrun/internal/config"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "graphrun-api",
		Short:         "HTTP API for running workflow files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile)
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "Config file (YAML, JSON or TOML)")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	svc, err := bootstrap.Setup(ctx, cfg, "graphrun-api", bootstrap.Options{})
	if err != nil {
		return err
	}
	defer svc.Close()
	logger := svc.Logger

	handlerCfg := api.Config{
		Workflows: svc.Workflows,
		Runner:    svc.Runner,
		Logger:    logger,
		Metrics:   svc.Metrics,
	}
	// Интерфейсы не должны получить typed nil
	if svc.Publisher != nil {
		handlerCfg.Publisher = svc.Publisher
	}
	if svc.Summaries != nil {
		handlerCfg.Summaries = svc.Summaries
	}

	mux := http.NewServeMux()
	api.NewHandler(handlerCfg).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              config.Addr(cfg.APIPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
	return nil
}
