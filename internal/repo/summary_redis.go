package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v9"

	"github.com/shaiso/graphrun/internal/domain"
)

const (
	defaultRedisNamespace = "graphrun"
	defaultHistoryLimit   = 50
)

// RedisConfig — параметры RedisSummaryStore.
type RedisConfig struct {
	// Addrs — адреса host:port (одиночный узел, sentinel или cluster).
	Addrs []string

	// Namespace — префикс ключей (default: "graphrun").
	Namespace string

	// HistoryLimit — сколько summary хранить в истории workflow (default: 50).
	HistoryLimit int
}

// RedisSummaryStore хранит последний summary и историю по каждому workflow.
//
// Ключи:
//
//	{ns}:summary:latest:{workflowId}   — JSON последнего summary
//	{ns}:summary:history:{workflowId}  — список JSON, новые первыми
//
// Реализует orchestrator.SummarySink.
type RedisSummaryStore struct {
	client       redis.UniversalClient
	namespace    string
	historyLimit int
}

// NewRedisSummaryStore подключается к Redis.
func NewRedisSummaryStore(cfg RedisConfig) *RedisSummaryStore {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: cfg.Addrs,
	})
	return NewRedisSummaryStoreWithClient(client, cfg)
}

// NewRedisSummaryStoreWithClient использует готовый клиент.
func NewRedisSummaryStoreWithClient(client redis.UniversalClient, cfg RedisConfig) *RedisSummaryStore {
	ns := cfg.Namespace
	if ns == "" {
		ns = defaultRedisNamespace
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &RedisSummaryStore{client: client, namespace: ns, historyLimit: limit}
}

// Name возвращает имя sink.
func (s *RedisSummaryStore) Name() string {
	return "redis"
}

// Ping проверяет соединение.
func (s *RedisSummaryStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close закрывает клиент.
func (s *RedisSummaryStore) Close() error {
	return s.client.Close()
}

// Save записывает summary как последний и добавляет его в историю.
func (s *RedisSummaryStore) Save(ctx context.Context, summary *domain.ExecutionSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	historyKey := s.key("history", summary.WorkflowID)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key("latest", summary.WorkflowID), data, 0)
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, int64(s.historyLimit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save summary to redis: %w", err)
	}
	return nil
}

// Latest возвращает последний summary workflow.
func (s *RedisSummaryStore) Latest(ctx context.Context, workflowID string) (*domain.ExecutionSummary, error) {
	data, err := s.client.Get(ctx, s.key("latest", workflowID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest summary: %w", err)
	}
	return decodeSummary(data)
}

// History возвращает до n последних summary workflow (новые первыми).
func (s *RedisSummaryStore) History(ctx context.Context, workflowID string, n int) ([]domain.ExecutionSummary, error) {
	if n <= 0 || n > s.historyLimit {
		n = s.historyLimit
	}

	values, err := s.client.LRange(ctx, s.key("history", workflowID), 0, int64(n-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.ExecutionSummary{}, nil
		}
		return nil, fmt.Errorf("get summary history: %w", err)
	}

	summaries := make([]domain.ExecutionSummary, 0, len(values))
	for _, v := range values {
		sum, err := decodeSummary([]byte(v))
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *sum)
	}
	return summaries, nil
}

func (s *RedisSummaryStore) key(parts ...string) string {
	return s.namespace + ":summary:" + strings.Join(parts, ":")
}
