package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeRuns Exchange = "graphrun.runs"
	ExchangeDLQ  Exchange = "graphrun.dlq"
)

// Queues — имена очередей.
const (
	QueueRunsRequested Queue = "runs.requested"
	QueueRunsCompleted Queue = "runs.completed"
	QueueDLQRuns       Queue = "dlq.runs"
)

// Routing keys.
const (
	RoutingKeyRunRequested RoutingKey = "run.requested"
	RoutingKeyRunCompleted RoutingKey = "run.completed"
	RoutingKeyDLQRuns      RoutingKey = "runs"
)

// queueSpec — очередь и её аргументы.
type queueSpec struct {
	name Queue
	args amqp.Table
}

// bindingSpec — привязка очереди к обменнику.
type bindingSpec struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

func exchanges() []Exchange {
	return []Exchange{ExchangeRuns, ExchangeDLQ}
}

func queues() []queueSpec {
	return []queueSpec{
		// runs.requested — отклонённые без requeue запросы уходят в DLQ
		{QueueRunsRequested, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQRuns),
		}},

		// runs.completed — события для внешних подписчиков, ограничены по длине
		{QueueRunsCompleted, amqp.Table{
			"x-max-length": int32(10000),
		}},

		{QueueDLQRuns, nil},
	}
}

func bindings() []bindingSpec {
	return []bindingSpec{
		{QueueRunsRequested, RoutingKeyRunRequested, ExchangeRuns},
		{QueueRunsCompleted, RoutingKeyRunCompleted, ExchangeRuns},
		{QueueDLQRuns, RoutingKeyDLQRuns, ExchangeDLQ},
	}
}

// SetupTopology объявляет обменники, очереди и привязки. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range exchanges() {
			err := ch.ExchangeDeclare(
				string(ex), // name
				"direct",   // type
				true,       // durable
				false,      // auto-deleted
				false,      // internal
				false,      // no-wait
				nil,        // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		for _, q := range queues() {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range bindings() {
			err := ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(b.exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  graphrun RabbitMQ topology:

    graphrun.runs (direct)
    ├── runs.requested [routing: run.requested]
    │       Consumer: graphrun-worker
    │       DLQ: dlq.runs
    └── runs.completed [routing: run.completed]
            Producer: summary event sink

    graphrun.dlq (direct)
    └── dlq.runs [routing: runs]
            Manual processing
`
}
