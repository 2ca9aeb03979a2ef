package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Очереди.
const (
	QueueTasks   Queue = "tasks"
	QueueResults Queue = "results"
)

// Queues — все очереди системы в порядке объявления.
var Queues = []Queue{QueueTasks, QueueResults}

// SetupTopology объявляет очереди tasks и results.
// Оба участника (producer и consumer) вызывают её до начала работы.
func SetupTopology(ctx context.Context, b Broker) error {
	for _, q := range Queues {
		if err := b.DeclareQueue(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// DeclareQueue объявляет очередь. Повторное объявление с теми же параметрами — no-op.
func (b *AMQPBroker) DeclareQueue(_ context.Context, queue Queue) error {
	return b.withChannel(func(ch *amqp.Channel) error {
		_, err := ch.QueueDeclare(
			string(queue), // name
			b.durable,     // durable
			false,         // delete when unused
			false,         // exclusive
			false,         // no-wait
			nil,           // arguments
		)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDeclare, queue, err)
		}

		b.logger.Debug("queue declared", "queue", queue, "durable", b.durable)
		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  matq RabbitMQ Topology:

    (default exchange)
    ├── tasks   [routing: tasks]
    │       Producer → Consumer (manual ack, prefetch 1)
    └── results [routing: results]
            Consumer → external sink
  `
}
