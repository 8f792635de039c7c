// Package cli реализует инструмент командной строки graphrun.
//
// # Обзор
//
// Большинство команд работают через HTTP API (graphrun-api) и не
// импортируют серверные пакеты. Команды validate и exec работают
// локально: разбирают файл и выполняют его через orchestrator в процессе CLI.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для graphrun API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	workflows, err := client.ListWorkflows()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: graphrun workflow list --json | jq .
//
// ## Commands
//
//   - workflow: list, show
//   - run FILE [--input k=v] [--async]
//   - chart FILE, tools, summaries
//   - validate PATH, exec PATH (локально)
//
// Каждая команда создаётся фабричной функцией (NewWorkflowCmd и т.д.),
// принимающей clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
