package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/shaiso/matq/internal/codec"
	"github.com/shaiso/matq/internal/mq"
	"github.com/shaiso/matq/internal/producer"
)

func TestEndToEnd_ProducerConsumer(t *testing.T) {
	server := mq.NewMemoryServer()
	ctx := context.Background()

	producerBroker := server.Connect(discardLogger())
	p := producer.New(producer.Config{
		Broker:     producerBroker,
		TaskCount:  3,
		MatrixSize: 4,
		RateLimit:  time.Millisecond,
		Generator:  producer.NewGenerator(2024, producer.DefaultMaxValue),
		Logger:     discardLogger(),
	})

	sent, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("producer: %v", err)
	}
	producerBroker.Close()

	if sent.Sent != 3 {
		t.Fatalf("expected 3 tasks sent, got %d", sent.Sent)
	}

	tasks := server.Published(mq.QueueTasks)
	for i, msg := range tasks {
		if _, err := codec.DecodeTask(msg.Body); err != nil {
			t.Fatalf("task %d malformed: %v", i, err)
		}
	}

	consumerBroker := server.Connect(discardLogger())
	c := New(Config{
		Broker:         consumerBroker,
		ConsumeTimeout: 20 * time.Millisecond,
		IdleThreshold:  3,
		Logger:         discardLogger(),
	})

	summary, err := c.Run(ctx)
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}
	consumerBroker.Close()

	if summary.Processed != 3 || summary.Reason != ReasonIdle {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	results := server.Published(mq.QueueResults)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	var totalMillis int64
	for i, msg := range results {
		r, err := codec.ParseResult(msg.Body)
		if err != nil {
			t.Fatalf("result %d malformed: %v", i, err)
		}
		if msg.CorrelationID != tasks[i].ID {
			t.Errorf("result %d correlates to %s, want %s", i, msg.CorrelationID, tasks[i].ID)
		}
		totalMillis += r.ElapsedMillis()
	}

	if summary.TotalElapsed.Milliseconds() != totalMillis {
		t.Errorf("cumulative time %dms differs from sum of results %dms",
			summary.TotalElapsed.Milliseconds(), totalMillis)
	}

	if len(server.Ready(mq.QueueTasks)) != 0 {
		t.Error("tasks queue should be drained")
	}
}
