package mq

import (
	"context"
	"sync/atomic"
	"time"
)

// Queue — имя очереди.
type Queue string

// Broker — минимальный набор операций с брокером.
//
// Реализации: AMQPBroker (RabbitMQ), MemoryBroker (in-process).
// Вызовы не конкурентны: в каждый момент выполняется не более одного.
type Broker interface {
	// DeclareQueue идемпотентно объявляет очередь.
	DeclareQueue(ctx context.Context, queue Queue) error

	// Publish публикует сообщение в очередь через default exchange.
	Publish(ctx context.Context, queue Queue, msg Message) error

	// ConsumeNext ждёт следующее сообщение не дольше timeout.
	// Возвращает ErrIdle, если сообщений не было, и ctx.Err() при отмене.
	ConsumeNext(ctx context.Context, queue Queue, timeout time.Duration) (*Delivery, error)

	// Ack подтверждает обработку сообщения.
	Ack(d *Delivery) error

	// Close закрывает канал и соединение.
	Close() error
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения (uuid).
	ID string

	// CorrelationID — ID сообщения, в ответ на которое опубликовано это.
	CorrelationID string

	// ContentType — MIME-тип тела.
	ContentType string

	// Timestamp — время создания.
	Timestamp time.Time

	// Body — тело сообщения.
	Body []byte
}

// Delivery — доставленное сообщение, ожидающее ack.
type Delivery struct {
	// Queue — очередь, из которой получено сообщение.
	Queue Queue

	// MessageID — ID сообщения от отправителя.
	MessageID string

	// CorrelationID — ID связанного сообщения.
	CorrelationID string

	// Redelivered — сообщение доставляется повторно.
	Redelivered bool

	// Body — тело сообщения.
	Body []byte

	tag   uint64
	acked atomic.Bool
}

// Acked сообщает, подтверждено ли сообщение.
func (d *Delivery) Acked() bool {
	return d.acked.Load()
}

// markAcked переводит сообщение в подтверждённое; повторный вызов — ошибка.
func (d *Delivery) markAcked() error {
	if !d.acked.CompareAndSwap(false, true) {
		return ErrAlreadyAcked
	}
	return nil
}

// unmarkAcked снимает флаг после неудачного ack.
func (d *Delivery) unmarkAcked() {
	d.acked.Store(false)
}

var (
	_ Broker = (*AMQPBroker)(nil)
	_ Broker = (*MemoryBroker)(nil)
)
