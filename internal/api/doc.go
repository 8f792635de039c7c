// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (workflow-файлы, runner, publisher, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (recovery, logging, metrics)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - workflow_handler.go — обработчики для /workflows и /chart
//   - run_handler.go      — обработчики для /run и /summaries
//
// API отдаёт workflow-файлы из WORKFLOWS_DIR, запускает их синхронно
// или через очередь и показывает сохранённые summaries.
package api
