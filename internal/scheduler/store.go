package scheduler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/graphrun/internal/domain"
)

// ErrInvalidSchedule — расписание в файле невалидно.
var ErrInvalidSchedule = errors.New("invalid schedule")

// scheduleFile — корень YAML файла расписаний.
type scheduleFile struct {
	Schedules []domain.Schedule `yaml:"schedules"`
}

// LoadSchedules читает расписания из YAML файла.
// Отсутствующий файл — пустой список.
func LoadSchedules(path string) ([]domain.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Schedule{}, nil
		}
		return nil, fmt.Errorf("read schedules file: %w", err)
	}
	return ParseSchedules(data)
}

// ParseSchedules разбирает и проверяет YAML с расписаниями.
func ParseSchedules(data []byte) ([]domain.Schedule, error) {
	var file scheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schedules: %w", err)
	}

	names := make(map[string]bool, len(file.Schedules))
	for i := range file.Schedules {
		s := &file.Schedules[i]
		if err := validateSchedule(s); err != nil {
			return nil, fmt.Errorf("schedules[%d]: %w", i, err)
		}
		if names[s.Name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidSchedule, s.Name)
		}
		names[s.Name] = true
	}

	if file.Schedules == nil {
		file.Schedules = []domain.Schedule{}
	}
	return file.Schedules, nil
}

func validateSchedule(s *domain.Schedule) error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidSchedule)
	}
	if s.Workflow == "" {
		return fmt.Errorf("%w: %s: workflow is empty", ErrInvalidSchedule, s.Name)
	}
	if !s.IsCron() && !s.IsInterval() {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, s.Name, ErrNoTrigger)
	}
	if s.IsCron() {
		if err := ValidateCronExpr(s.CronExpr); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, s.Name, err)
		}
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("%w: %s: unknown timezone %q", ErrInvalidSchedule, s.Name, s.Timezone)
		}
	}
	return nil
}
