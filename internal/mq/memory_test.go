package mq

import (
	"context"
	"errors"
	"testing"
	"time"
)

func declared(t *testing.T, s *MemoryServer) *MemoryBroker {
	t.Helper()
	b := s.Connect(discardLogger())
	if err := SetupTopology(context.Background(), b); err != nil {
		t.Fatalf("setup topology: %v", err)
	}
	return b
}

func TestMemoryBroker_DeclareIdempotent(t *testing.T) {
	s := NewMemoryServer()
	b := declared(t, s)

	if _, err := NewPublisher(b, discardLogger()).Publish(context.Background(), QueueTasks, []byte("1 1 1")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Повторное объявление не должно терять сообщения
	if err := SetupTopology(context.Background(), b); err != nil {
		t.Fatalf("redeclare: %v", err)
	}
	if got := len(s.Ready(QueueTasks)); got != 1 {
		t.Errorf("expected 1 ready message, got %d", got)
	}
}

func TestMemoryBroker_ConsumeAndAck(t *testing.T) {
	s := NewMemoryServer()
	b := declared(t, s)
	ctx := context.Background()

	id, err := NewPublisher(b, discardLogger()).Publish(ctx, QueueTasks, []byte("hello"))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	d, err := b.ConsumeNext(ctx, QueueTasks, time.Second)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if string(d.Body) != "hello" || d.MessageID != id {
		t.Errorf("unexpected delivery: %+v", d)
	}
	if b.Unacked() != 1 {
		t.Errorf("expected 1 unacked, got %d", b.Unacked())
	}

	if err := b.Ack(d); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !d.Acked() {
		t.Error("delivery should be marked acked")
	}
	if err := b.Ack(d); !errors.Is(err, ErrAlreadyAcked) {
		t.Errorf("expected ErrAlreadyAcked on second ack, got %v", err)
	}
	if got := len(s.Acked(QueueTasks)); got != 1 {
		t.Errorf("expected 1 acked message, got %d", got)
	}
}

func TestMemoryBroker_FailedAckLeavesDeliveryUnacked(t *testing.T) {
	s := NewMemoryServer()
	first := declared(t, s)
	second := declared(t, s)
	ctx := context.Background()

	first.Publish(ctx, QueueTasks, NewMessage([]byte("x")))

	d, err := first.ConsumeNext(ctx, QueueTasks, time.Second)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	// Тег чужой сессии брокеру неизвестен.
	if err := second.Ack(d); !errors.Is(err, ErrBroker) {
		t.Fatalf("expected ErrBroker for foreign delivery tag, got %v", err)
	}
	if d.Acked() {
		t.Error("delivery must not be marked acked after a failed ack")
	}

	if err := first.Ack(d); err != nil {
		t.Fatalf("ack on owning session: %v", err)
	}
	if !d.Acked() {
		t.Error("delivery should be marked acked")
	}
}

func TestMemoryBroker_IdleTimeout(t *testing.T) {
	b := declared(t, NewMemoryServer())

	start := time.Now()
	_, err := b.ConsumeNext(context.Background(), QueueTasks, 20*time.Millisecond)
	if !errors.Is(err, ErrIdle) {
		t.Fatalf("expected ErrIdle, got %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("ConsumeNext returned before timeout")
	}
}

func TestMemoryBroker_WakesOnPublish(t *testing.T) {
	s := NewMemoryServer()
	consumer := declared(t, s)
	producer := declared(t, s)

	go func() {
		time.Sleep(10 * time.Millisecond)
		producer.Publish(context.Background(), QueueTasks, NewMessage([]byte("late")))
	}()

	d, err := consumer.ConsumeNext(context.Background(), QueueTasks, 5*time.Second)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if string(d.Body) != "late" {
		t.Errorf("expected late message, got %q", d.Body)
	}
}

func TestMemoryBroker_ContextCancel(t *testing.T) {
	b := declared(t, NewMemoryServer())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.ConsumeNext(ctx, QueueTasks, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryBroker_CloseRequeuesUnacked(t *testing.T) {
	s := NewMemoryServer()
	first := declared(t, s)
	ctx := context.Background()

	first.Publish(ctx, QueueTasks, NewMessage([]byte("a")))
	first.Publish(ctx, QueueTasks, NewMessage([]byte("b")))

	d, err := first.ConsumeNext(ctx, QueueTasks, time.Second)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := first.Ack(d); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}

	second := declared(t, s)
	redelivered, err := second.ConsumeNext(ctx, QueueTasks, time.Second)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if string(redelivered.Body) != "a" || !redelivered.Redelivered {
		t.Errorf("expected redelivered message a, got %q (redelivered=%v)", redelivered.Body, redelivered.Redelivered)
	}
}

func TestMemoryBroker_CompetingConsumers(t *testing.T) {
	s := NewMemoryServer()
	c1 := declared(t, s)
	c2 := declared(t, s)
	ctx := context.Background()

	c1.Publish(ctx, QueueTasks, NewMessage([]byte("only")))

	if _, err := c1.ConsumeNext(ctx, QueueTasks, time.Second); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if _, err := c2.ConsumeNext(ctx, QueueTasks, 10*time.Millisecond); !errors.Is(err, ErrIdle) {
		t.Errorf("second consumer must not receive the same message, got %v", err)
	}
}

func TestMemoryBroker_UndeclaredQueue(t *testing.T) {
	s := NewMemoryServer()
	b := s.Connect(discardLogger())
	ctx := context.Background()

	if err := b.Publish(ctx, QueueTasks, NewMessage([]byte("x"))); err != nil {
		t.Fatalf("publish to undeclared queue should be dropped silently: %v", err)
	}
	if s.Declared(QueueTasks) {
		t.Error("publish must not declare the queue")
	}

	_, err := b.ConsumeNext(ctx, QueueTasks, time.Millisecond)
	if !errors.Is(err, ErrBroker) {
		t.Errorf("expected ErrBroker for undeclared queue, got %v", err)
	}
}

func TestMemoryBroker_Fail(t *testing.T) {
	b := declared(t, NewMemoryServer())
	b.Fail(errors.New("connection reset"))

	_, err := b.ConsumeNext(context.Background(), QueueTasks, time.Second)
	if !errors.Is(err, ErrBroker) {
		t.Errorf("expected ErrBroker, got %v", err)
	}
	if err := b.Publish(context.Background(), QueueResults, NewMessage(nil)); !errors.Is(err, ErrBroker) {
		t.Errorf("expected ErrBroker, got %v", err)
	}
}
