// Package bootstrap собирает зависимости сервисов graphrun из config.Config.
//
// Обязательны только каталог workflow и файловый sink. PostgreSQL, Redis
// и RabbitMQ подключаются, если заданы их адреса.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/graphrun/internal/config"
	"github.com/shaiso/graphrun/internal/mq"
	"github.com/shaiso/graphrun/internal/orchestrator"
	"github.com/shaiso/graphrun/internal/repo"
	"github.com/shaiso/graphrun/internal/telemetry"
	"github.com/shaiso/graphrun/internal/tools"
)

// Services — собранные зависимости сервиса.
// Pool, Conn, Publisher, Summaries и Redis равны nil, если не настроены.
type Services struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *telemetry.Metrics

	Pool      *pgxpool.Pool
	Summaries *repo.SummaryRepo
	Redis     *repo.RedisSummaryStore
	Conn      *mq.Connection
	Publisher *mq.Publisher

	Workflows *repo.WorkflowRepo
	Runner    *orchestrator.Runner

	closers []func()
}

// Options — необязательные параметры Setup.
type Options struct {
	// Registerer — реестр метрик (default: prometheus.DefaultRegisterer).
	Registerer prometheus.Registerer

	// SkipBroker — не подключаться к RabbitMQ даже если он настроен.
	SkipBroker bool
}

// Setup настраивает логирование, трассировку и метрики, подключает
// хранилища и создаёт Runner со всеми доступными summary sinks.
//
// Недоступный PostgreSQL — ошибка. Недоступные Redis и RabbitMQ только
// логируются: сервис работает без них.
func Setup(ctx context.Context, cfg *config.Config, serviceName string, opts Options) (*Services, error) {
	logger := telemetry.SetupLoggerWith(cfg.LogFormat, telemetry.ParseLevel(cfg.LogLevel), os.Stdout)
	logger = logger.With("service", serviceName)

	s := &Services{Config: cfg, Logger: logger}

	shutdown, err := telemetry.SetupTracing(serviceName, cfg.TraceStdout, nil)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	s.closers = append(s.closers, func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	})

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s.Metrics = telemetry.NewMetrics(reg)

	sinks := []orchestrator.SummarySink{orchestrator.NewFileSink(cfg.SummariesDir)}

	if cfg.HasDatabase() {
		if err := s.connectDatabase(ctx); err != nil {
			s.Close()
			return nil, err
		}
		sinks = append(sinks, s.Summaries)
	}

	if cfg.HasRedis() {
		if s.connectRedis(ctx) {
			sinks = append(sinks, s.Redis)
		}
	}

	if cfg.HasBroker() && !opts.SkipBroker {
		if s.connectBroker(ctx, serviceName) {
			sinks = append(sinks, mq.NewEventSink(s.Publisher))
		}
	}

	s.Workflows = repo.NewWorkflowRepo(cfg.WorkflowsDir, logger)
	s.Runner = orchestrator.NewRunner(orchestrator.RunnerConfig{
		Source:      s.Workflows,
		Registry:    tools.DefaultRegistry(),
		Sinks:       sinks,
		ToolTimeout: cfg.ToolTimeout,
		Logger:      logger,
		Metrics:     s.Metrics,
	})

	names := make([]string, len(sinks))
	for i, sink := range sinks {
		names[i] = sink.Name()
	}
	logger.Info("services ready",
		"workflows_dir", cfg.WorkflowsDir,
		"sinks", strings.Join(names, ","),
	)

	return s, nil
}

func (s *Services) connectDatabase(ctx context.Context) error {
	pool, err := repo.NewPool(ctx, s.Config.DBURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	s.closers = append(s.closers, pool.Close)

	if err := repo.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	s.Pool = pool
	s.Summaries = repo.NewSummaryRepo(pool)
	s.Logger.Info("connected to database")
	return nil
}

func (s *Services) connectRedis(ctx context.Context) bool {
	store := repo.NewRedisSummaryStore(repo.RedisConfig{
		Addrs: strings.Split(s.Config.RedisAddr, ","),
	})
	if err := store.Ping(ctx); err != nil {
		s.Logger.Warn("Redis not available, summaries will not be cached", "error", err)
		store.Close()
		return false
	}
	s.closers = append(s.closers, func() { store.Close() })

	s.Redis = store
	s.Logger.Info("connected to Redis")
	return true
}

func (s *Services) connectBroker(ctx context.Context, serviceName string) bool {
	conn, err := mq.NewConnection(s.Config.RabbitMQURL, serviceName, s.Logger)
	if err != nil {
		s.Logger.Warn("RabbitMQ not available, running without queue", "error", err)
		return false
	}
	s.closers = append(s.closers, func() { conn.Close() })

	if err := mq.SetupTopology(ctx, conn); err != nil {
		s.Logger.Warn("failed to setup topology", "error", err)
	}

	s.Conn = conn
	s.Publisher = mq.NewPublisher(conn, s.Logger)
	s.Logger.Info("RabbitMQ connected")
	return true
}

// Close освобождает ресурсы в обратном порядке.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
