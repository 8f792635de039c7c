package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического запуска workflow-файла.
//
// Расписания описываются в YAML файле (SCHEDULES_FILE):
//
//	schedules:
//	  - name: nightly-report
//	    workflow: report.json
//	    cron_expr: "0 3 * * *"
//	    timezone: Europe/Moscow
//	    enabled: true
//	    inputs:
//	      region: eu
//
// Состояние (NextDueAt, LastRunAt, LastRunID) живёт в памяти планировщика.
type Schedule struct {
	// Name — уникальное имя расписания.
	Name string `json:"name" yaml:"name"`

	// Workflow — имя файла workflow в каталоге WORKFLOWS_DIR.
	Workflow string `json:"workflow" yaml:"workflow"`

	// CronExpr — cron-выражение ("минуты часы дни месяцы дни_недели").
	// Если задан, IntervalSec игнорируется.
	CronExpr string `json:"cron_expr,omitempty" yaml:"cron_expr,omitempty"`

	// IntervalSec — интервал между запусками в секундах.
	IntervalSec int `json:"interval_sec,omitempty" yaml:"interval_sec,omitempty"`

	// Timezone — часовой пояс для cron. По умолчанию UTC.
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`

	// Enabled — выключенные расписания игнорируются.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Inputs — trigger data для каждого запуска.
	Inputs map[string]any `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	NextDueAt *time.Time `json:"next_due_at,omitempty" yaml:"-"`
	LastRunAt *time.Time `json:"last_run_at,omitempty" yaml:"-"`
	LastRunID *uuid.UUID `json:"last_run_id,omitempty" yaml:"-"`
}

// IsCron возвращает true, если расписание использует cron-выражение.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если расписание использует интервал.
func (s *Schedule) IsInterval() bool {
	return s.CronExpr == "" && s.IntervalSec > 0
}

// IsDue проверяет, пора ли запускать.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled || s.NextDueAt == nil {
		return false
	}
	return !now.Before(*s.NextDueAt)
}

// RecordRun записывает информацию о запуске и следующее время.
func (s *Schedule) RecordRun(runID uuid.UUID, at, nextDue time.Time) {
	s.LastRunAt = &at
	s.LastRunID = &runID
	s.NextDueAt = &nextDue
}
