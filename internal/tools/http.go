package tools

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// ToolTypeHTTP — тип HTTP узла.
	ToolTypeHTTP = "http"

	// Значения по умолчанию.
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// Ключи параметров HTTP узла.
const (
	configMethod          = "method"
	configURL             = "url"
	configHeaders         = "headers"
	configBody            = "body"
	configFollowRedirects = "follow_redirects"
	configValidateSSL     = "validate_ssl"
	configTimeoutSec      = "timeout_sec"
	configFailOnStatus    = "fail_on_status"
)

// HTTPTool — HTTP запрос к внешнему API.
//
// Параметры:
//
//	{
//	    "method": "POST",
//	    "url": "https://api.example.com/items/{{start.id}}",
//	    "headers": {"Authorization": "Bearer xxx"},
//	    "body": {"key": "value"},
//	    "follow_redirects": true,
//	    "validate_ssl": true,
//	    "timeout_sec": 30,
//	    "fail_on_status": false
//	}
//
// Результат:
//
//	{
//	    "status_code": 200,
//	    "headers": {"Content-Type": "application/json", ...},
//	    "body": {...}  // JSON или строка
//	}
//
// Вложенные значения (headers, body) шаблонами не обрабатываются:
// подстановка выполняется только для параметров верхнего уровня.
type HTTPTool struct{}

// NewHTTPTool создаёт HTTPTool.
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{}
}

// Type возвращает тип узла.
func (t *HTTPTool) Type() string {
	return ToolTypeHTTP
}

// Description реализует Describer.
func (t *HTTPTool) Description() string {
	return "Sends an HTTP request and returns status, headers and body"
}

// Execute выполняет HTTP запрос.
func (t *HTTPTool) Execute(ctx context.Context, req *Request) (any, error) {
	cfg, err := t.parseConfig(req.Params)
	if err != nil {
		return nil, err
	}

	client := t.buildClient(cfg, req.Timeout)

	httpReq, err := t.buildRequest(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrToolCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	result, err := t.parseResponse(resp)
	if err != nil {
		return nil, err
	}

	if cfg.FailOnStatus && resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       fmt.Sprint(result["body"]),
		}
	}
	return result, nil
}

// httpConfig — разобранные параметры HTTP узла.
type httpConfig struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            any
	FollowRedirects bool
	ValidateSSL     bool
	TimeoutSec      int
	FailOnStatus    bool
}

func (t *HTTPTool) parseConfig(params map[string]any) (*httpConfig, error) {
	cfg := &httpConfig{
		Method:          GetConfigString(params, configMethod),
		URL:             GetConfigString(params, configURL),
		Headers:         GetConfigMapString(params, configHeaders),
		Body:            params[configBody],
		FollowRedirects: GetConfigBool(params, configFollowRedirects, true),
		ValidateSSL:     GetConfigBool(params, configValidateSSL, true),
		TimeoutSec:      GetConfigInt(params, configTimeoutSec),
		FailOnStatus:    GetConfigBool(params, configFailOnStatus, false),
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: %s: url is required", ErrInvalidConfig, ToolTypeHTTP)
	}

	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)

	// Копия: заголовки дополняются ниже, параметры узла менять нельзя
	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	cfg.Headers = headers

	return cfg, nil
}

func (t *HTTPTool) buildClient(cfg *httpConfig, reqTimeout time.Duration) *http.Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	if reqTimeout > 0 && reqTimeout < timeout {
		timeout = reqTimeout
	}

	var checkRedirect func(*http.Request, []*http.Request) error
	if !cfg.FollowRedirects {
		checkRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: !cfg.ValidateSSL,
			},
		},
	}
}

func (t *HTTPTool) buildRequest(ctx context.Context, cfg *httpConfig) (*http.Request, error) {
	var bodyReader io.Reader

	if cfg.Body != nil {
		bodyBytes, err := serializeBody(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("serialize body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)

		if _, hasContentType := cfg.Headers["Content-Type"]; !hasContentType {
			cfg.Headers["Content-Type"] = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

func serializeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

func (t *HTTPTool) parseResponse(resp *http.Response) (map[string]any, error) {
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var body any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(bodyBytes, &body); err != nil {
			body = string(bodyBytes)
		}
	} else {
		body = string(bodyBytes)
	}

	headers := make(map[string]any, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return map[string]any{
		"status_code": float64(resp.StatusCode),
		"headers":     headers,
		"body":        body,
	}, nil
}

// HTTPError — ответ с кодом 4xx/5xx при fail_on_status.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error реализует интерфейс error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// IsHTTPError проверяет, является ли ошибка HTTP ошибкой.
func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}
