package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ContentTypeText — тип тела для задач и результатов.
const ContentTypeText = "text/plain"

// Publisher публикует сообщения, присваивая им уникальные ID.
type Publisher struct {
	broker Broker
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(broker Broker, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		broker: broker,
		logger: logger,
	}
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(body []byte) Message {
	return Message{
		ID:          uuid.New().String(),
		ContentType: ContentTypeText,
		Timestamp:   time.Now(),
		Body:        body,
	}
}

// Publish публикует тело в очередь и возвращает ID сообщения.
func (p *Publisher) Publish(ctx context.Context, queue Queue, body []byte) (string, error) {
	return p.publish(ctx, queue, NewMessage(body))
}

// Reply публикует ответ на сообщение correlationID.
func (p *Publisher) Reply(ctx context.Context, queue Queue, correlationID string, body []byte) (string, error) {
	msg := NewMessage(body)
	msg.CorrelationID = correlationID
	return p.publish(ctx, queue, msg)
}

func (p *Publisher) publish(ctx context.Context, queue Queue, msg Message) (string, error) {
	if err := p.broker.Publish(ctx, queue, msg); err != nil {
		return "", err
	}

	p.logger.Debug("published message",
		"queue", queue,
		"message_id", msg.ID,
		"correlation_id", msg.CorrelationID,
		"size", len(msg.Body),
	)

	return msg.ID, nil
}

// Publish публикует сообщение через default exchange с routing key = имя очереди.
func (b *AMQPBroker) Publish(ctx context.Context, queue Queue, msg Message) error {
	err := b.withChannel(func(ch *amqp.Channel) error {
		return ch.PublishWithContext(
			ctx,
			"",            // exchange
			string(queue), // routing key
			false,         // mandatory
			false,         // immediate
			amqp.Publishing{
				ContentType:   msg.ContentType,
				MessageId:     msg.ID,
				CorrelationId: msg.CorrelationID,
				Timestamp:     msg.Timestamp,
				Body:          msg.Body,
			},
		)
	})
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return err
		}
		return b.brokerError(fmt.Sprintf("publish to %s", queue), err)
	}
	return nil
}
