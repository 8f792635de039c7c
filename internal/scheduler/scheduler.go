package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/graphrun/internal/domain"
)

// Dispatcher запускает workflow по расписанию.
type Dispatcher interface {
	Dispatch(ctx context.Context, sched *domain.Schedule, runID uuid.UUID) error
}

// Scheduler — планировщик, запускающий due schedules.
//
// Состояние расписаний (next_due_at, last_run_at) живёт в памяти.
// При нескольких экземплярах Tick должен вызывать только лидер.
type Scheduler struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	clock      func() time.Time

	mu        sync.Mutex
	schedules []domain.Schedule
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules  []domain.Schedule
	Dispatcher Dispatcher
	Logger     *slog.Logger

	// Clock — источник времени (default: time.Now).
	Clock func() time.Time
}

// New создаёт Scheduler и вычисляет первое время запуска каждого расписания.
// Расписания, для которых время не вычисляется, выключаются.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &Scheduler{
		dispatcher: cfg.Dispatcher,
		logger:     logger,
		clock:      clock,
		schedules:  make([]domain.Schedule, len(cfg.Schedules)),
	}
	copy(s.schedules, cfg.Schedules)

	now := clock()
	for i := range s.schedules {
		sched := &s.schedules[i]
		if !sched.Enabled {
			continue
		}
		next, err := CalculateNextDue(sched, now)
		if err != nil {
			logger.Error("failed to calculate next due, disabling schedule",
				"schedule_name", sched.Name,
				"error", err,
			)
			sched.Enabled = false
			continue
		}
		sched.NextDueAt = &next
	}

	return s
}

// Schedules возвращает копию текущего состояния расписаний.
func (s *Scheduler) Schedules() []domain.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Schedule, len(s.schedules))
	copy(out, s.schedules)
	return out
}

// Tick выполняет один тик планировщика.
//
//  1. Находит due schedules (enabled, next_due_at <= now)
//  2. Для каждого выдаёт новый run ID и передаёт его Dispatcher
//  3. Сдвигает next_due_at
//
// Если Dispatcher вернул ошибку, next_due_at не сдвигается и запуск
// повторится на следующем тике. Ошибки одного schedule не блокируют остальные.
// Возвращает количество запущенных runs.
func (s *Scheduler) Tick(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()

	var due, dispatched int
	for i := range s.schedules {
		sched := &s.schedules[i]
		if !sched.IsDue(now) {
			continue
		}
		due++

		if s.processSchedule(ctx, sched, now) {
			dispatched++
		}
	}

	if due > 0 {
		s.logger.Info("scheduler tick completed",
			"due", due,
			"runs_dispatched", dispatched,
		)
	}
	return dispatched
}

// processSchedule запускает одно расписание. Возвращает true при успешном запуске.
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) bool {
	runID := uuid.New()

	if err := s.dispatcher.Dispatch(ctx, sched, runID); err != nil {
		s.logger.Error("failed to dispatch scheduled run",
			"schedule_name", sched.Name,
			"workflow", sched.Workflow,
			"error", err,
		)
		return false
	}

	next, err := CalculateNextDue(sched, now)
	if err != nil {
		s.logger.Error("failed to calculate next due, disabling schedule",
			"schedule_name", sched.Name,
			"error", err,
		)
		sched.Enabled = false
		return true
	}

	sched.RecordRun(runID, now, next)

	s.logger.Info("dispatched scheduled run",
		"run_id", runID,
		"schedule_name", sched.Name,
		"workflow", sched.Workflow,
		"next_due_at", next,
	)
	return true
}

// Run вызывает Tick с интервалом interval до отмены ctx.
// isLeader (может быть nil) вызывается перед каждым тиком; false — тик пропускается.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, isLeader func(context.Context) bool) {
	tk := time.NewTicker(interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			if isLeader != nil && !isLeader(ctx) {
				continue
			}
			s.Tick(ctx)
		}
	}
}
