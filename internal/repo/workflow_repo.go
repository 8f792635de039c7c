package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/shaiso/graphrun/internal/domain"
	"github.com/shaiso/graphrun/internal/engine"
)

const (
	defaultWorkflowTTL = 5 * time.Minute
	defaultExtension   = ".json"
)

// cachedWorkflow — разобранный файл и время его изменения.
type cachedWorkflow struct {
	modTime  time.Time
	size     int64
	workflow *domain.Workflow
}

// WorkflowRepo читает workflow-файлы (JSON/YAML) из каталога.
//
// Разобранные workflow кэшируются по имени файла; запись из кэша
// используется, только если время изменения и размер файла не поменялись.
type WorkflowRepo struct {
	dir    string
	cache  *cache.Cache
	logger *slog.Logger
}

// NewWorkflowRepo создаёт WorkflowRepo для каталога dir.
func NewWorkflowRepo(dir string, logger *slog.Logger) *WorkflowRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkflowRepo{
		dir:    dir,
		cache:  cache.New(defaultWorkflowTTL, 2*defaultWorkflowTTL),
		logger: logger,
	}
}

// Dir возвращает каталог workflow.
func (r *WorkflowRepo) Dir() string {
	return r.dir
}

// NormalizeFilename добавляет ".json", если у имени нет расширения,
// и отклоняет имена с путём (защита от выхода за пределы каталога).
func NormalizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	if filepath.Ext(name) == "" {
		name += defaultExtension
	}
	if _, err := engine.FormatFromFilename(name); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidFilename, name, err)
	}
	return name, nil
}

// List возвращает workflow каталога, отсортированные по имени файла.
// Файлы, которые не удалось разобрать, пропускаются с предупреждением.
func (r *WorkflowRepo) List(ctx context.Context) ([]domain.WorkflowInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.WorkflowInfo{}, nil
		}
		return nil, fmt.Errorf("read workflows dir: %w", err)
	}

	infos := make([]domain.WorkflowInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := engine.FormatFromFilename(entry.Name()); err != nil {
			continue
		}

		wf, err := r.Load(ctx, entry.Name())
		if err != nil {
			r.logger.Warn("skipping invalid workflow file", "filename", entry.Name(), "error", err)
			continue
		}
		infos = append(infos, domain.WorkflowInfo{
			ID:       wf.ID,
			Name:     wf.Name,
			Filename: entry.Name(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Filename < infos[j].Filename })
	return infos, nil
}

// Load читает, разбирает и валидирует workflow-файл.
// Реализует orchestrator.WorkflowSource.
func (r *WorkflowRepo) Load(ctx context.Context, filename string) (*domain.Workflow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := NormalizeFilename(filename)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(r.dir, name)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workflow %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("stat workflow %s: %w", name, err)
	}

	if v, ok := r.cache.Get(name); ok {
		c := v.(*cachedWorkflow)
		if c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
			return c.workflow, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow %s: %w", name, err)
	}

	format, err := engine.FormatFromFilename(name)
	if err != nil {
		return nil, err
	}
	wf, err := engine.Parse(format, data)
	if err != nil {
		return nil, fmt.Errorf("parse workflow %s: %w", name, err)
	}

	r.cache.SetDefault(name, &cachedWorkflow{
		modTime:  info.ModTime(),
		size:     info.Size(),
		workflow: wf,
	})
	return wf, nil
}

// Invalidate удаляет файл из кэша.
func (r *WorkflowRepo) Invalidate(filename string) {
	if name, err := NormalizeFilename(filename); err == nil {
		r.cache.Delete(name)
	}
}
