// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация run.requested и run.completed
//   - consumer.go   — потребление сообщений из очередей
//   - events.go     — sink summary, публикующий run.completed
//
// Типы сообщений:
//   - run.requested — запрос на выполнение workflow-файла (API, scheduler)
//   - run.completed — run завершён, краткая сводка
//
// Exchanges:
//   - graphrun.runs — события runs
//   - graphrun.dlq  — dead letter queue
package mq
