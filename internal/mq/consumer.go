package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumeNext ждёт следующее сообщение из очереди не дольше timeout.
//
// Подписка (basic.consume с ручным ack) создаётся при первом вызове для очереди.
// Закрытие канала брокером возвращается как ErrBroker.
func (b *AMQPBroker) ConsumeNext(ctx context.Context, queue Queue, timeout time.Duration) (*Delivery, error) {
	deliveries, err := b.subscribe(queue)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case <-timer.C:
		return nil, ErrIdle

	case raw, ok := <-deliveries:
		if !ok {
			return nil, b.brokerError(fmt.Sprintf("consume from %s", queue), nil)
		}

		return &Delivery{
			Queue:         queue,
			MessageID:     raw.MessageId,
			CorrelationID: raw.CorrelationId,
			Redelivered:   raw.Redelivered,
			Body:          raw.Body,
			tag:           raw.DeliveryTag,
		}, nil
	}
}

// subscribe возвращает канал доставки для очереди, создавая подписку при необходимости.
func (b *AMQPBroker) subscribe(queue Queue) (<-chan amqp.Delivery, error) {
	b.mu.Lock()
	deliveries, ok := b.deliveries[queue]
	b.mu.Unlock()
	if ok {
		return deliveries, nil
	}

	err := b.withChannel(func(ch *amqp.Channel) error {
		var err error
		deliveries, err = ch.Consume(
			string(queue), // queue
			"",            // consumer tag (auto-generated)
			false,         // auto-ack (мы ack вручную)
			false,         // exclusive
			false,         // no-local
			false,         // no-wait
			nil,           // args
		)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return nil, err
		}
		return nil, b.brokerError(fmt.Sprintf("consume from %s", queue), err)
	}

	b.mu.Lock()
	b.deliveries[queue] = deliveries
	b.mu.Unlock()

	b.logger.Info("consumer started", "queue", queue)

	return deliveries, nil
}

// Ack подтверждает сообщение. Повторный ack возвращает ErrAlreadyAcked.
func (b *AMQPBroker) Ack(d *Delivery) error {
	if err := d.markAcked(); err != nil {
		return err
	}

	err := b.withChannel(func(ch *amqp.Channel) error {
		return ch.Ack(d.tag, false)
	})
	if err != nil {
		d.unmarkAcked()
		if errors.Is(err, ErrClosed) {
			return err
		}
		return b.brokerError("ack", err)
	}
	return nil
}
