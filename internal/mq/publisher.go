package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunRequested MessageType = "run.requested"
	MessageTypeRunCompleted MessageType = "run.completed"
)

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// RunRequestedPayload — запрос на выполнение workflow-файла.
type RunRequestedPayload struct {
	// RunID — ID, выданный вызывающему (API отдаёт его в ответе 202).
	RunID uuid.UUID `json:"run_id"`

	// Workflow — имя файла в WORKFLOWS_DIR.
	Workflow string `json:"workflow"`

	// Inputs — trigger data.
	Inputs map[string]any `json:"inputs,omitempty"`

	// Source — кто запросил запуск: api, scheduler, cli.
	Source string `json:"source,omitempty"`

	// Schedule — имя расписания, если запуск плановый.
	Schedule string `json:"schedule,omitempty"`
}

// RunCompletedPayload — событие о завершении run.
type RunCompletedPayload struct {
	RunID         uuid.UUID `json:"run_id"`
	WorkflowID    string    `json:"workflow_id"`
	Status        string    `json:"status"`
	DurationMs    int64     `json:"duration_ms"`
	NodesExecuted int       `json:"nodes_executed"`
	EdgesTaken    int       `json:"edges_taken"`

	// FailedNodes — узлы, результат которых {"error": "..."}.
	FailedNodes []string `json:"failed_nodes,omitempty"`

	FinishedAt time.Time `json:"finished_at"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
		now:    time.Now,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// newMessage оборачивает payload в конверт.
func (p *Publisher) newMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: p.now(),
	}
}

// PublishRunRequested ставит запуск workflow в очередь.
// Потребитель: graphrun-worker.
func (p *Publisher) PublishRunRequested(ctx context.Context, payload RunRequestedPayload) error {
	if payload.RunID == uuid.Nil {
		payload.RunID = uuid.New()
	}
	return p.Publish(ctx, ExchangeRuns, RoutingKeyRunRequested, p.newMessage(MessageTypeRunRequested, payload))
}

// PublishRunCompleted публикует событие о завершении run.
func (p *Publisher) PublishRunCompleted(ctx context.Context, payload RunCompletedPayload) error {
	return p.Publish(ctx, ExchangeRuns, RoutingKeyRunCompleted, p.newMessage(MessageTypeRunCompleted, payload))
}
