package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// ToolTypeTimerTrigger — тип узла запуска по таймеру.
	ToolTypeTimerTrigger = "timer-trigger"

	// maxTimerWait — верхняя граница реального ожидания.
	maxTimerWait = 30 * time.Second

	// maxAcceleratedWait — верхняя граница ожидания в ускоренном режиме.
	maxAcceleratedWait = 10 * time.Second
)

// Форматы scheduledTime, кроме числового timestamp в миллисекундах.
var scheduledTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TimerTriggerTool — запуск после задержки или в заданное время.
//
// Параметры:
//
//	{
//	    "triggerType": "delay",        // или "scheduled"
//	    "delaySeconds": "30",          // для delay: любое из трёх
//	    "delayMinutes": "1",
//	    "delayHours": "0",
//	    "scheduledTime": "2025-01-01T10:00:00Z", // для scheduled
//	    "allowPastTriggers": "true",   // прошедшее время → сработать сразу
//	    "simulateOnly": "true",        // не ждать
//	    "accelerateTime": "true"       // минута превращается в секунду
//	}
//
// Реальное ожидание ограничено 30 секундами.
type TimerTriggerTool struct {
	now func() time.Time
}

// NewTimerTriggerTool создаёт TimerTriggerTool.
func NewTimerTriggerTool() *TimerTriggerTool {
	return &TimerTriggerTool{now: time.Now}
}

// Type возвращает тип узла.
func (t *TimerTriggerTool) Type() string {
	return ToolTypeTimerTrigger
}

// Description реализует Describer.
func (t *TimerTriggerTool) Description() string {
	return "Fires after a delay or at a scheduled time"
}

// Execute ждёт срабатывания таймера.
func (t *TimerTriggerTool) Execute(ctx context.Context, req *Request) (any, error) {
	params := req.Params

	triggerType := strings.ToLower(GetConfigString(params, "triggerType"))
	if triggerType == "" {
		return nil, fmt.Errorf("%w: %s: triggerType parameter is required (delay or scheduled)",
			ErrInvalidConfig, ToolTypeTimerTrigger)
	}

	now := t.now()
	var (
		triggerTime time.Time
		delay       time.Duration
		err         error
	)

	switch triggerType {
	case "delay":
		delay, err = t.parseDelay(params)
		if err != nil {
			return nil, err
		}
		triggerTime = now.Add(delay)

	case "scheduled":
		triggerTime, err = parseScheduledTime(params["scheduledTime"])
		if err != nil {
			return nil, err
		}
		delay = triggerTime.Sub(now)
		if delay < 0 {
			if !GetConfigBool(params, "allowPastTriggers", false) {
				return nil, fmt.Errorf("%w: %s: scheduled time is in the past",
					ErrInvalidConfig, ToolTypeTimerTrigger)
			}
			delay = 0
			triggerTime = now
		}

	default:
		return nil, fmt.Errorf("%w: %s: invalid triggerType %q, use delay or scheduled",
			ErrInvalidConfig, ToolTypeTimerTrigger, triggerType)
	}

	if GetConfigBool(params, "simulateOnly", false) {
		return map[string]any{
			"triggered":     true,
			"triggerType":   triggerType,
			"scheduledTime": formatTimestamp(triggerTime),
			"delayMs":       delay.Milliseconds(),
			"timestamp":     formatTimestamp(now),
			"simulated":     true,
			"message":       "Timer trigger SIMULATED to fire " + describeTrigger(triggerType, delay, triggerTime),
		}, nil
	}

	if GetConfigBool(params, "accelerateTime", false) {
		accelerated := time.Duration(math.Ceil(float64(delay.Milliseconds())/60)) * time.Millisecond
		delay = min(maxAcceleratedWait, accelerated)
	}

	wait := min(maxTimerWait, delay)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrToolCancelled, ctx.Err())
	case <-timer.C:
	}

	completed := t.now()
	return map[string]any{
		"triggered":          true,
		"triggerType":        triggerType,
		"scheduledTime":      formatTimestamp(triggerTime),
		"delayMs":            delay.Milliseconds(),
		"actualDelayMs":      wait.Milliseconds(),
		"startTimestamp":     formatTimestamp(now),
		"completedTimestamp": formatTimestamp(completed),
		"message":            "Timer trigger fired " + describeFired(triggerType, wait, completed),
	}, nil
}

func (t *TimerTriggerTool) parseDelay(params map[string]any) (time.Duration, error) {
	units := []struct {
		key  string
		unit time.Duration
	}{
		{"delaySeconds", time.Second},
		{"delayMinutes", time.Minute},
		{"delayHours", time.Hour},
	}

	var total time.Duration
	found := false
	for _, u := range units {
		raw, ok := params[u.key]
		if !ok || raw == nil || raw == "" {
			continue
		}
		n, ok := parseIntParam(raw)
		if !ok {
			return 0, fmt.Errorf("%w: %s: %s must be a number", ErrInvalidConfig, ToolTypeTimerTrigger, u.key)
		}
		found = true
		total += time.Duration(n) * u.unit
	}

	if !found {
		return 0, fmt.Errorf("%w: %s: at least one of delaySeconds, delayMinutes or delayHours is required",
			ErrInvalidConfig, ToolTypeTimerTrigger)
	}
	return total, nil
}

func parseIntParam(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		// "10s", "5 minutes" → ведущие цифры
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end == 0 {
			return 0, false
		}
		i, err := strconv.ParseInt(s[:end], 10, 64)
		return i, err == nil
	}
	return 0, false
}

func parseScheduledTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("%w: %s: scheduledTime parameter is required",
			ErrInvalidConfig, ToolTypeTimerTrigger)
	case float64:
		return time.UnixMilli(int64(x)), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, fmt.Errorf("%w: %s: scheduledTime parameter is required",
				ErrInvalidConfig, ToolTypeTimerTrigger)
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms), nil
		}
		for _, layout := range scheduledTimeLayouts {
			if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return ts, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s: invalid scheduledTime format, use ISO 8601 or a timestamp",
		ErrInvalidConfig, ToolTypeTimerTrigger)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func describeTrigger(triggerType string, delay time.Duration, at time.Time) string {
	if triggerType == "delay" {
		return "after " + FormatDelay(delay)
	}
	return "at " + at.Format(time.DateTime)
}

func describeFired(triggerType string, waited time.Duration, at time.Time) string {
	if triggerType == "delay" {
		return "after waiting " + FormatDelay(waited)
	}
	return "at " + at.Format(time.DateTime)
}

// FormatDelay печатает длительность словами: "1 hour, 2 minutes, 5 seconds".
// Миллисекунды отбрасываются.
func FormatDelay(d time.Duration) string {
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total / 60) % 60
	seconds := total % 60

	var parts []string
	add := func(n int64, unit string) {
		if n <= 0 {
			return
		}
		if n != 1 {
			unit += "s"
		}
		parts = append(parts, strconv.FormatInt(n, 10)+" "+unit)
	}
	add(hours, "hour")
	add(minutes, "minute")
	add(seconds, "second")

	return strings.Join(parts, ", ")
}
