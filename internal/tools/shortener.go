package tools

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// ToolTypeURLShortener — тип узла сокращения ссылок.
	ToolTypeURLShortener = "url-shortener"

	defaultShortBaseURL = "https://short.url/"
)

// ErrShortURLNotFound — сокращённая ссылка не найдена.
var ErrShortURLNotFound = errors.New("shortened URL not found")

// shortURL — запись хранилища ссылок.
type shortURL struct {
	OriginalURL string
	CreatedAt   time.Time
	Clicks      int
}

// URLShortenerTool сокращает ссылки и отдаёт информацию о них.
//
// Параметры:
//
//	{
//	    "action": "shorten",     // или "info"
//	    "url": "https://example.com/very/long/path",
//	    "ttl_sec": 3600          // опционально, время жизни ссылки
//	}
//
// shorten → {"success": true, "shortUrl": "https://short.url/1a2b3c4d", "code": "1a2b3c4d"}
// info    → {"success": true, "originalUrl": "...", "createdAt": "...", "clicks": 0}
//
// Хранилище живёт в памяти процесса и общее для всех run.
type URLShortenerTool struct {
	store   *cache.Cache
	baseURL string
}

// NewURLShortenerTool создаёт URLShortenerTool с хранилищем без срока жизни.
func NewURLShortenerTool() *URLShortenerTool {
	return &URLShortenerTool{
		store:   cache.New(cache.NoExpiration, 10*time.Minute),
		baseURL: defaultShortBaseURL,
	}
}

// Type возвращает тип узла.
func (t *URLShortenerTool) Type() string {
	return ToolTypeURLShortener
}

// Description реализует Describer.
func (t *URLShortenerTool) Description() string {
	return "Shortens URLs and looks up shortened ones"
}

// Execute выполняет действие.
func (t *URLShortenerTool) Execute(ctx context.Context, req *Request) (any, error) {
	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	action := strings.ToLower(GetConfigString(req.Params, "action"))
	url := strings.TrimSpace(GetConfigString(req.Params, "url"))
	if action == "" || url == "" {
		return nil, fmt.Errorf("%w: %s: both action and url parameters are required",
			ErrInvalidConfig, ToolTypeURLShortener)
	}

	switch action {
	case "shorten":
		ttl := time.Duration(GetConfigInt(req.Params, "ttl_sec")) * time.Second
		return t.shorten(url, ttl)
	case "info":
		return t.info(url)
	default:
		return nil, fmt.Errorf("%w: %s: invalid action %q, use shorten or info",
			ErrInvalidConfig, ToolTypeURLShortener, action)
	}
}

func (t *URLShortenerTool) shorten(longURL string, ttl time.Duration) (any, error) {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	code, err := generateShortCode()
	if err != nil {
		return nil, err
	}
	// Add не перезаписывает существующий код
	for t.store.Add(code, &shortURL{OriginalURL: longURL, CreatedAt: time.Now().UTC()}, ttl) != nil {
		if code, err = generateShortCode(); err != nil {
			return nil, err
		}
	}

	return map[string]any{
		"success":  true,
		"shortUrl": t.baseURL + code,
		"code":     code,
	}, nil
}

func (t *URLShortenerTool) info(short string) (any, error) {
	code := short[strings.LastIndex(short, "/")+1:]

	v, found := t.store.Get(code)
	if !found {
		return nil, ErrShortURLNotFound
	}
	entry := v.(*shortURL)

	return map[string]any{
		"success":     true,
		"originalUrl": entry.OriginalURL,
		"createdAt":   entry.CreatedAt.Format(time.RFC3339Nano),
		"clicks":      float64(entry.Clicks),
	}, nil
}

func generateShortCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate short code: %w", err)
	}
	return hex.EncodeToString(b), nil
}
