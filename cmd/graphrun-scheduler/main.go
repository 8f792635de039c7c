// graphrun-scheduler — запускает workflow-файлы по расписанию.
//
// Расписания читаются из SCHEDULES_FILE (YAML). Due schedules публикуются
// в runs.requested, а без RabbitMQ выполняются в процессе планировщика.
// При заданном DB_URL тикает только экземпляр, взявший pg_try_advisory_lock.
package main

import (
	"context"
	"encoding/json"
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
	"github.com/shaiso/graphrun/internal/repo"
	"github.com/shaiso/graphrun/internal/scheduler"
)

const schedLockKey int64 = 424242

func main() {
	var configFile string
	var tick time.Duration

	rootCmd := &cobra.Command{
		Use:           "graphrun-scheduler",
		Short:         "Runs workflow files on cron and interval schedules",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile, tick)
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "Config file (YAML, JSON or TOML)")
	rootCmd.Flags().DurationVar(&tick, "tick", time.Second, "Scheduler tick interval")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string, tick time.Duration) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	schedules, err := scheduler.LoadSchedules(cfg.SchedulesFile)
	if err != nil {
		return err
	}

	svc, err := bootstrap.Setup(ctx, cfg, "graphrun-scheduler", bootstrap.Options{})
	if err != nil {
		return err
	}
	defer svc.Close()
	logger := svc.Logger

	var dispatcher scheduler.Dispatcher
	var local *scheduler.LocalDispatcher
	if svc.Publisher != nil {
		dispatcher = scheduler.NewQueueDispatcher(svc.Publisher)
	} else {
		logger.Warn("no message broker, scheduled runs execute in-process")
		local = scheduler.NewLocalDispatcher(svc.Runner, logger)
		dispatcher = local
	}

	sched := scheduler.New(scheduler.Config{
		Schedules:  schedules,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	logger.Info("schedules loaded", "file", cfg.SchedulesFile, "count", len(schedules))

	// leader election
	isLeader := func(context.Context) bool { return true }
	var lock *repo.AdvisoryLock
	if svc.Pool != nil {
		lock = repo.NewAdvisoryLock(svc.Pool, schedLockKey)
		isLeader = func(ctx context.Context) bool {
			wasLeader := lock.Held()
			ok, err := lock.TryAcquire(ctx)
			if err != nil {
				logger.Error("leader lock error", "error", err)
				return false
			}
			if ok && !wasLeader {
				logger.Info("became scheduler leader")
			}
			return ok
		}
	}

	// HTTP mux: /healthz + /metrics + /schedules
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /schedules", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sched.Schedules())
	})

	server := &http.Server{Addr: config.Addr(cfg.SchedPort), Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// scheduler loop до сигнала завершения
	sched.Run(ctx, tick, isLeader)
	logger.Info("shutting down")

	if lock != nil {
		if err := lock.Unlock(context.Background()); err != nil {
			logger.Warn("failed to release leader lock", "error", err)
		}
	}
	if local != nil {
		local.Wait()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("graphrun-scheduler stopped")
	return nil
}
