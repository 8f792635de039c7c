package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/graphrun/internal/domain"
)

const (
	defaultSummaryLimit = 20
	maxSummaryLimit     = 500
)

// SummaryFilter — фильтр списка summary.
type SummaryFilter struct {
	// WorkflowID — пустой означает все workflow.
	WorkflowID string
	Limit      int
}

// normalize применяет значения по умолчанию к Limit.
func (f SummaryFilter) normalize() SummaryFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = defaultSummaryLimit
	case f.Limit > maxSummaryLimit:
		f.Limit = maxSummaryLimit
	}
	return f
}

// SummaryRepo хранит execution summary в PostgreSQL.
//
// Реализует orchestrator.SummarySink.
type SummaryRepo struct {
	pool *pgxpool.Pool
}

// NewSummaryRepo создаёт новый SummaryRepo.
func NewSummaryRepo(pool *pgxpool.Pool) *SummaryRepo {
	return &SummaryRepo{pool: pool}
}

// Name возвращает имя sink.
func (r *SummaryRepo) Name() string {
	return "postgres"
}

// Save сохраняет summary. Повторное сохранение того же run перезаписывает запись.
func (r *SummaryRepo) Save(ctx context.Context, s *domain.ExecutionSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	query := `
		INSERT INTO execution_summaries
			(run_id, workflow_id, workflow_name, status, start_time, end_time, duration_ms, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE
		SET status = EXCLUDED.status, end_time = EXCLUDED.end_time,
		    duration_ms = EXCLUDED.duration_ms, summary = EXCLUDED.summary
	`
	_, err = r.pool.Exec(ctx, query,
		s.RunID,
		s.WorkflowID,
		s.WorkflowName,
		s.Status,
		s.StartTime,
		s.EndTime,
		s.DurationMs,
		data,
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// GetByRunID возвращает summary по ID run.
func (r *SummaryRepo) GetByRunID(ctx context.Context, runID uuid.UUID) (*domain.ExecutionSummary, error) {
	query := `SELECT summary FROM execution_summaries WHERE run_id = $1`

	var data []byte
	if err := r.pool.QueryRow(ctx, query, runID).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return decodeSummary(data)
}

// ListRecent возвращает последние summary (новые первыми).
func (r *SummaryRepo) ListRecent(ctx context.Context, filter SummaryFilter) ([]domain.ExecutionSummary, error) {
	filter = filter.normalize()

	query := `
		SELECT summary
		FROM execution_summaries
		WHERE ($1::text IS NULL OR workflow_id = $1)
		ORDER BY end_time DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, nullString(filter.WorkflowID), filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.ExecutionSummary, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s, err := decodeSummary(data)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *s)
	}
	return summaries, rows.Err()
}

func decodeSummary(data []byte) (*domain.ExecutionSummary, error) {
	var s domain.ExecutionSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &s, nil
}

// nullString возвращает nil для пустой строки (SQL NULL).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
