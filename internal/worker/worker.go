package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/graphrun/internal/domain"
	"github.com/shaiso/graphrun/internal/mq"
	"github.com/shaiso/graphrun/internal/telemetry"
)

// Default configuration values.
const (
	defaultPrefetch   = 1
	defaultRunTimeout = 10 * time.Minute
)

// RunService выполняет workflow-файл. Реализуется orchestrator.Runner.
type RunService interface {
	Run(ctx context.Context, filename string, input any) (*domain.ExecutionSummary, error)
}

// RunHistory проверяет, выполнялся ли run. Реализуется repo.SummaryRepo.
type RunHistory interface {
	GetByRunID(ctx context.Context, runID uuid.UUID) (*domain.ExecutionSummary, error)
}

// Worker выполняет runs из очереди runs.requested.
type Worker struct {
	runner  RunService
	history RunHistory
	conn    *mq.Connection

	consumer *mq.Consumer

	prefetch   int
	runTimeout time.Duration

	logger     *slog.Logger
	metrics    *telemetry.Metrics
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Runner — выполнение workflow (обязателен).
	Runner RunService

	// History — опционально; повторно доставленный run с известным ID пропускается.
	History RunHistory

	Conn *mq.Connection

	// Prefetch — сообщений в работе одновременно (default: 1).
	Prefetch int

	// RunTimeout — ограничение времени одного run (default: 10m).
	RunTimeout time.Duration

	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		runner:     cfg.Runner,
		history:    cfg.History,
		conn:       cfg.Conn,
		prefetch:   prefetch,
		runTimeout: runTimeout,
		logger:     logger,
		metrics:    cfg.Metrics,
	}
}

// Start запускает consumer очереди runs.requested.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"prefetch", w.prefetch,
		"run_timeout", w.runTimeout,
	)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueRunsRequested),
		Handler:  w.handleRunRequested,
		Prefetch: w.prefetch,
		OnResult: w.metrics.QueueDelivery,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("run consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт завершения текущего run.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()
	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
