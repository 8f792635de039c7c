// Package config загружает конфигурацию сервисов graphrun.
//
// Источники в порядке приоритета:
//  1. Переменные окружения (API_PORT, DB_URL, RABBITMQ_URL, ...)
//  2. Файл конфигурации (--config, YAML/JSON/TOML)
//  3. Значения по умолчанию
//
// Пустые DB_URL, RABBITMQ_URL и REDIS_ADDR отключают соответствующие
// хранилища: workflow выполняются, summary пишется только в файл.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Ключи конфигурации. Имя переменной окружения — ключ в верхнем регистре.
const (
	KeyAPIPort       = "api_port"
	KeyWorkerPort    = "worker_port"
	KeySchedPort     = "sched_port"
	KeyDBURL         = "db_url"
	KeyRabbitMQURL   = "rabbitmq_url"
	KeyRedisAddr     = "redis_addr"
	KeyWorkflowsDir  = "workflows_dir"
	KeySummariesDir  = "summaries_dir"
	KeySchedulesFile = "schedules_file"
	KeyToolTimeout   = "tool_timeout"
	KeyTraceStdout   = "trace_stdout"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
)

// ErrInvalidConfig — невалидное значение конфигурации.
var ErrInvalidConfig = errors.New("invalid config")

// Config — конфигурация сервисов.
type Config struct {
	APIPort    int
	WorkerPort int
	SchedPort  int

	// DBURL — DSN PostgreSQL. Пустой — без PostgreSQL sink и leader lock.
	DBURL string

	// RabbitMQURL — адрес брокера. Пустой — без очереди и событий.
	RabbitMQURL string

	// RedisAddr — host:port Redis. Пустой — без Redis sink.
	RedisAddr string

	WorkflowsDir  string
	SummariesDir  string
	SchedulesFile string

	// ToolTimeout — таймаут одного узла. 0 — без таймаута.
	ToolTimeout time.Duration

	// TraceStdout — писать spans OpenTelemetry в stdout.
	TraceStdout bool

	LogLevel  string
	LogFormat string
}

// SetDefaults регистрирует значения по умолчанию.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIPort, 8080)
	v.SetDefault(KeyWorkerPort, 8082)
	v.SetDefault(KeySchedPort, 8081)
	v.SetDefault(KeyDBURL, "")
	v.SetDefault(KeyRabbitMQURL, "")
	v.SetDefault(KeyRedisAddr, "")
	v.SetDefault(KeyWorkflowsDir, "workflows")
	v.SetDefault(KeySummariesDir, "summaries")
	v.SetDefault(KeySchedulesFile, "schedules.yaml")
	v.SetDefault(KeyToolTimeout, "0s")
	v.SetDefault(KeyTraceStdout, false)
	v.SetDefault(KeyLogLevel, "INFO")
	v.SetDefault(KeyLogFormat, "json")
}

// New создаёт viper с defaults и чтением переменных окружения.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// Load читает конфигурацию. configFile может быть пустым.
func Load(configFile string) (*Config, error) {
	v := New()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	return FromViper(v)
}

// FromViper собирает Config из viper и проверяет его.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		APIPort:       v.GetInt(KeyAPIPort),
		WorkerPort:    v.GetInt(KeyWorkerPort),
		SchedPort:     v.GetInt(KeySchedPort),
		DBURL:         v.GetString(KeyDBURL),
		RabbitMQURL:   v.GetString(KeyRabbitMQURL),
		RedisAddr:     v.GetString(KeyRedisAddr),
		WorkflowsDir:  v.GetString(KeyWorkflowsDir),
		SummariesDir:  v.GetString(KeySummariesDir),
		SchedulesFile: v.GetString(KeySchedulesFile),
		ToolTimeout:   v.GetDuration(KeyToolTimeout),
		TraceStdout:   v.GetBool(KeyTraceStdout),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения.
func (c *Config) Validate() error {
	for name, port := range map[string]int{
		"API_PORT":    c.APIPort,
		"WORKER_PORT": c.WorkerPort,
		"SCHED_PORT":  c.SchedPort,
	} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("%w: %s must be in 1..65535, got %d", ErrInvalidConfig, name, port)
		}
	}
	if c.ToolTimeout < 0 {
		return fmt.Errorf("%w: TOOL_TIMEOUT must not be negative", ErrInvalidConfig)
	}
	if c.WorkflowsDir == "" {
		return fmt.Errorf("%w: WORKFLOWS_DIR is empty", ErrInvalidConfig)
	}
	return nil
}

// HasDatabase возвращает true, если настроен PostgreSQL.
func (c *Config) HasDatabase() bool { return c.DBURL != "" }

// HasBroker возвращает true, если настроен RabbitMQ.
func (c *Config) HasBroker() bool { return c.RabbitMQURL != "" }

// HasRedis возвращает true, если настроен Redis.
func (c *Config) HasRedis() bool { return c.RedisAddr != "" }

// Addr возвращает адрес для net/http (":port").
func Addr(port int) string {
	return fmt.Sprintf(":%d", port)
}
