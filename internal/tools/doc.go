// Package tools содержит реализации типов узлов (инструменты).
//
// # Обзор
//
// Инструмент получает параметры узла (шаблоны верхнего уровня уже вычислены),
// входные данные от предыдущего узла и снимок результатов всех узлов
// под ключом "context". Возвращает JSON-подобное значение,
// которое становится результатом узла.
//
// # Интерфейс Tool
//
//	type Tool interface {
//	    Type() string
//	    Execute(ctx context.Context, req *Request) (any, error)
//	}
//
// Ошибка инструмента не прерывает workflow: executor сохраняет её
// как {"error": "..."} и продолжает обход.
//
// # Registry
//
//	registry := tools.DefaultRegistry()
//	tool, err := registry.Get("http")
//	if errors.Is(err, tools.ErrToolNotFound) {
//	    // неизвестный тип узла
//	}
//
// # Встроенные инструменты
//
//	manual-trigger  входные данные запуска
//	timer-trigger   задержка или время срабатывания
//	delay           пауза duration_sec / duration_ms
//	http            HTTP запрос
//	transform       объект из шаблонов mappings
//	merge           объединение результатов нескольких узлов
//	javascript      скрипт в goja VM
//	jsonpath        выборка по JSONPath
//	url-shortener   сокращение ссылок
//
// Собственный инструмент регистрируется через Registry.Register до запуска.
package tools
