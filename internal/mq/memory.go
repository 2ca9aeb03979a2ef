package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// MemoryServer — in-process брокер: хранит очереди, общие для всех сессий.
//
// Семантика повторяет RabbitMQ в объёме, нужном системе:
// конкурирующие consumer'ы, ручной ack, возврат неподтверждённых
// сообщений в очередь при закрытии сессии.
type MemoryServer struct {
	mu      sync.Mutex
	queues  map[Queue]*memQueue
	nextTag uint64
}

type memQueue struct {
	ready     []memMessage
	published []Message
	acked     []Message

	// signal закрывается и пересоздаётся при каждой публикации.
	signal chan struct{}
}

type memMessage struct {
	msg         Message
	redelivered bool
}

// NewMemoryServer создаёт пустой брокер.
func NewMemoryServer() *MemoryServer {
	return &MemoryServer{queues: make(map[Queue]*memQueue)}
}

// Connect открывает новую сессию.
func (s *MemoryServer) Connect(logger *slog.Logger) *MemoryBroker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryBroker{
		server:  s,
		logger:  logger,
		unacked: make(map[uint64]unackedMessage),
	}
}

// Ready возвращает сообщения, ожидающие доставки.
func (s *MemoryServer) Ready(queue Queue) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[queue]
	if !ok {
		return nil
	}
	out := make([]Message, len(q.ready))
	for i, m := range q.ready {
		out[i] = m.msg
	}
	return out
}

// Published возвращает все сообщения, опубликованные в очередь.
func (s *MemoryServer) Published(queue Queue) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[queue]
	if !ok {
		return nil
	}
	return append([]Message(nil), q.published...)
}

// Acked возвращает подтверждённые сообщения очереди в порядке ack.
func (s *MemoryServer) Acked(queue Queue) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[queue]
	if !ok {
		return nil
	}
	return append([]Message(nil), q.acked...)
}

// Declared сообщает, объявлена ли очередь.
func (s *MemoryServer) Declared(queue Queue) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.queues[queue]
	return ok
}

type unackedMessage struct {
	queue Queue
	msg   memMessage
}

// MemoryBroker — сессия MemoryServer, реализует Broker.
type MemoryBroker struct {
	server *MemoryServer
	logger *slog.Logger

	mu      sync.Mutex
	closed  bool
	unacked map[uint64]unackedMessage

	// failure, если задан, возвращается всеми операциями как ErrBroker.
	failure error
}

// Fail переводит сессию в состояние сбоя: последующие операции вернут ErrBroker.
func (b *MemoryBroker) Fail(reason error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failure = reason
}

// Unacked возвращает количество неподтверждённых доставок сессии.
func (b *MemoryBroker) Unacked() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.unacked)
}

func (b *MemoryBroker) check() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.failure != nil {
		return fmt.Errorf("%w: %w", ErrBroker, b.failure)
	}
	return nil
}

// DeclareQueue объявляет очередь; повторное объявление — no-op.
func (b *MemoryBroker) DeclareQueue(_ context.Context, queue Queue) error {
	if err := b.check(); err != nil {
		return err
	}

	s := b.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.queues[queue]; !ok {
		s.queues[queue] = &memQueue{signal: make(chan struct{})}
	}
	return nil
}

// Publish кладёт сообщение в очередь. Сообщение в необъявленную очередь
// отбрасывается, как это делает default exchange без mandatory.
func (b *MemoryBroker) Publish(_ context.Context, queue Queue, msg Message) error {
	if err := b.check(); err != nil {
		return err
	}

	msg.Body = append([]byte(nil), msg.Body...)

	s := b.server
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[queue]
	if !ok {
		b.logger.Debug("message to undeclared queue dropped", "queue", queue)
		return nil
	}

	q.ready = append(q.ready, memMessage{msg: msg})
	q.published = append(q.published, msg)
	close(q.signal)
	q.signal = make(chan struct{})
	return nil
}

// ConsumeNext забирает следующее сообщение или ждёт его не дольше timeout.
func (b *MemoryBroker) ConsumeNext(ctx context.Context, queue Queue, timeout time.Duration) (*Delivery, error) {
	if err := b.check(); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		d, signal, err := b.take(queue)
		if err != nil || d != nil {
			return d, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, ErrIdle
		case <-signal:
		}

		if err := b.check(); err != nil {
			return nil, err
		}
	}
}

// take извлекает первое сообщение очереди либо возвращает канал ожидания.
func (b *MemoryBroker) take(queue Queue) (*Delivery, <-chan struct{}, error) {
	s := b.server
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[queue]
	if !ok {
		return nil, nil, fmt.Errorf("%w: consume from %s: NOT_FOUND - no queue %q", ErrBroker, queue, queue)
	}
	if len(q.ready) == 0 {
		return nil, q.signal, nil
	}

	m := q.ready[0]
	q.ready = q.ready[1:]

	s.nextTag++
	tag := s.nextTag

	b.mu.Lock()
	b.unacked[tag] = unackedMessage{queue: queue, msg: m}
	b.mu.Unlock()

	return &Delivery{
		Queue:         queue,
		MessageID:     m.msg.ID,
		CorrelationID: m.msg.CorrelationID,
		Redelivered:   m.redelivered,
		Body:          m.msg.Body,
		tag:           tag,
	}, nil, nil
}

// Ack подтверждает доставку этой сессии.
func (b *MemoryBroker) Ack(d *Delivery) error {
	if err := b.check(); err != nil {
		return err
	}
	if err := d.markAcked(); err != nil {
		return err
	}

	b.mu.Lock()
	u, ok := b.unacked[d.tag]
	delete(b.unacked, d.tag)
	b.mu.Unlock()

	if !ok {
		d.unmarkAcked()
		return fmt.Errorf("%w: PRECONDITION_FAILED - unknown delivery tag %d", ErrBroker, d.tag)
	}

	s := b.server
	s.mu.Lock()
	if q, ok := s.queues[u.queue]; ok {
		q.acked = append(q.acked, u.msg.msg)
	}
	s.mu.Unlock()

	return nil
}

// Close закрывает сессию и возвращает неподтверждённые сообщения в начало очередей.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	unacked := b.unacked
	b.unacked = make(map[uint64]unackedMessage)
	b.mu.Unlock()

	s := b.server
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range unacked {
		q, ok := s.queues[u.queue]
		if !ok {
			continue
		}
		m := u.msg
		m.redelivered = true
		q.ready = append([]memMessage{m}, q.ready...)
		close(q.signal)
		q.signal = make(chan struct{})
	}

	b.logger.Info("connection closed", "requeued", len(unacked))
	return nil
}
