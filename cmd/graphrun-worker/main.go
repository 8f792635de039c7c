// graphrun-worker — выполняет runs из очереди runs.requested.
//
// Worker:
//   - Получает run.requested из RabbitMQ
//   - Загружает workflow-файл и выполняет его через orchestrator
//   - Сохраняет summary во все настроенные хранилища
//   - Публикует run.completed
//
// Workers масштабируются горизонтально. Без RABBITMQ_URL не запускается.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/graphrun/internal/bootstrap"
	"github.com/shaiso/graphrun/internal/config"
	"github.com/shaiso/graphrun/internal/worker"
)

func main() {
	var configFile string
	var prefetch int
	var runTimeout time.Duration

	rootCmd := &cobra.Command{
		Use:           "graphrun-worker",
		Short:         "Executes queued workflow runs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile, prefetch, runTimeout)
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "Config file (YAML, JSON or TOML)")
	rootCmd.Flags().IntVar(&prefetch, "prefetch", 1, "Runs processed concurrently")
	rootCmd.Flags().DurationVar(&runTimeout, "run-timeout", 10*time.Minute, "Maximum duration of one run")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string, prefetch int, runTimeout time.Duration) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if !cfg.HasBroker() {
		return errors.New("RABBITMQ_URL is required for graphrun-worker")
	}

	svc, err := bootstrap.Setup(ctx, cfg, "graphrun-worker", bootstrap.Options{})
	if err != nil {
		return err
	}
	defer svc.Close()
	logger := svc.Logger

	if svc.Conn == nil {
		return errors.New("RabbitMQ is not available")
	}

	wcfg := worker.Config{
		Runner:     svc.Runner,
		Conn:       svc.Conn,
		Prefetch:   prefetch,
		RunTimeout: runTimeout,
		Logger:     logger,
		Metrics:    svc.Metrics,
	}
	if svc.Summaries != nil {
		wcfg.History = svc.Summaries
	}
	w := worker.New(wcfg)

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		if w.IsStopped() || !svc.Conn.IsConnected() {
			rw.WriteHeader(http.StatusServiceUnavailable)
			rw.Write([]byte("unavailable"))
			return
		}
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: config.Addr(cfg.WorkerPort), Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем worker: дожидается текущих runs
	w.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("graphrun-worker stopped")
	return nil
}
