package tools

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry — реестр инструментов.
//
// Собирается при старте процесса и дальше используется только на чтение.
// Потокобезопасен.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// DefaultRegistry создаёт реестр со всеми встроенными инструментами.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(NewManualTriggerTool())
	r.Register(NewTimerTriggerTool())
	r.Register(NewDelayTool())
	r.Register(NewHTTPTool())
	r.Register(NewTransformTool())
	r.Register(NewMergeTool())
	r.Register(NewJavaScriptTool())
	r.Register(NewJSONPathTool())
	r.Register(NewURLShortenerTool())

	return r
}

// Register регистрирует инструмент.
// Если инструмент с таким типом уже существует, он будет перезаписан.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Type()] = tool
}

// Get возвращает инструмент по типу.
// Возвращает ErrToolNotFound, если инструмент не найден.
func (r *Registry) Get(toolType string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[toolType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, toolType)
	}

	return tool, nil
}

// Has проверяет, зарегистрирован ли инструмент.
func (r *Registry) Has(toolType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.tools[toolType]
	return exists
}

// Types возвращает отсортированный список типов.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.tools))
	for t := range r.tools {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count возвращает количество зарегистрированных инструментов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Unregister удаляет инструмент из реестра.
func (r *Registry) Unregister(toolType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, toolType)
}

// Info — описание инструмента для API и CLI.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Describe возвращает описания всех инструментов, отсортированные по ID.
func (r *Registry) Describe() []Info {
	types := r.Types()

	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(types))
	for _, t := range types {
		info := Info{ID: t, Name: DisplayName(t)}
		if d, ok := r.tools[t].(Describer); ok {
			info.Description = d.Description()
		}
		infos = append(infos, info)
	}
	return infos
}

// DisplayName превращает тип в заголовок: "url-shortener" → "Url Shortener".
func DisplayName(toolType string) string {
	words := strings.Split(toolType, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
