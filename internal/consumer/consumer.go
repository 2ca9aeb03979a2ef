package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shaiso/matq/internal/codec"
	"github.com/shaiso/matq/internal/compute"
	"github.com/shaiso/matq/internal/domain"
	"github.com/shaiso/matq/internal/mq"
	"github.com/shaiso/matq/internal/telemetry"
)

// Default configuration values.
const (
	defaultConsumeTimeout = time.Second
	defaultIdleThreshold  = 10

	// maxLoggedBody — сколько байт тела некорректного сообщения попадает в лог.
	maxLoggedBody = 512
)

// ExitReason — причина выхода из цикла.
type ExitReason string

// Причины выхода.
const (
	ReasonIdle     ExitReason = "idle"
	ReasonShutdown ExitReason = "shutdown"
	ReasonFailed   ExitReason = "broker_error"
)

// Config — конфигурация Consumer.
type Config struct {
	// Broker — соединение с брокером.
	Broker mq.Broker

	// ConsumeTimeout — ожидание одного сообщения (default: 1s).
	ConsumeTimeout time.Duration

	// IdleThreshold — таймаутов подряд до остановки (default: 10).
	IdleThreshold int

	// Compute (опционально; если nil — compute.Compute).
	Compute func(domain.Task) domain.Result

	// Metrics (опционально).
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// Summary — итог сессии consumer'а.
type Summary struct {
	// Processed — задач обработано и подтверждено.
	Processed int

	// ParseFailures — некорректных сообщений подтверждено и пропущено.
	ParseFailures int

	// IdlePolls — всего таймаутов без сообщений.
	IdlePolls int

	// TotalElapsed — суммарное время вычислений (сумма залогированных значений, мс).
	TotalElapsed time.Duration

	// Reason — причина выхода.
	Reason ExitReason
}

// Consumer получает задачи, вычисляет результаты и подтверждает сообщения.
type Consumer struct {
	broker    mq.Broker
	publisher *mq.Publisher
	compute   func(domain.Task) domain.Result

	timeout   time.Duration
	threshold int

	state   atomic.Int32
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// New создаёт новый Consumer.
func New(cfg Config) *Consumer {
	timeout := cfg.ConsumeTimeout
	if timeout <= 0 {
		timeout = defaultConsumeTimeout
	}

	threshold := cfg.IdleThreshold
	if threshold <= 0 {
		threshold = defaultIdleThreshold
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	computeFn := cfg.Compute
	if computeFn == nil {
		computeFn = compute.Compute
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics(nil)
	}

	return &Consumer{
		broker:    cfg.Broker,
		publisher: mq.NewPublisher(cfg.Broker, logger),
		compute:   computeFn,
		timeout:   timeout,
		threshold: threshold,
		metrics:   metrics,
		logger:    logger,
	}
}

// State возвращает текущее состояние цикла.
func (c *Consumer) State() State {
	return State(c.state.Load())
}

func (c *Consumer) setState(s State) {
	if prev := State(c.state.Swap(int32(s))); prev != s {
		c.logger.Debug("state transition", "from", prev, "to", s)
	}
}

// Run объявляет очереди и обрабатывает задачи до простоя, отмены ctx или ошибки брокера.
//
// Простой и отмена — штатное завершение (err == nil).
// Ошибка брокера возвращается вместе с Summary накопленным до неё.
func (c *Consumer) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if err := mq.SetupTopology(ctx, c.broker); err != nil {
		summary.Reason = ReasonFailed
		return summary, fmt.Errorf("setup topology: %w", err)
	}

	c.setState(StateWaiting)
	c.logger.Info("waiting for tasks",
		"queue", mq.QueueTasks,
		"timeout", c.timeout,
		"idle_threshold", c.threshold,
	)

	idle := 0
	for {
		d, err := c.broker.ConsumeNext(ctx, mq.QueueTasks, c.timeout)

		tr := Next(OutcomeOf(err), idle, shutdownRequested(ctx), c.threshold)
		idle = tr.Idle
		c.setState(tr.Next)

		switch tr.Next {
		case StateShuttingDown:
			if d != nil {
				c.logger.Info("discarding unprocessed delivery on shutdown", "message_id", d.MessageID)
			}
			c.logger.Info("shutdown requested, stopping consumer")
			summary.Reason = ReasonShutdown
			return summary, nil

		case StateDrainingIdle:
			summary.IdlePolls++
			c.metrics.IdlePolls.Inc()
			c.logger.Info(fmt.Sprintf("no tasks for %s, shutting down", time.Duration(idle)*c.timeout),
				"idle_polls", idle,
			)
			summary.Reason = ReasonIdle
			return summary, nil

		case StateFailed:
			c.logger.Error("broker error, stopping consumer", "error", err)
			summary.Reason = ReasonFailed
			return summary, fmt.Errorf("%w: %w", ErrConsume, err)

		case StateWaiting:
			summary.IdlePolls++
			c.metrics.IdlePolls.Inc()
			c.logger.Debug("no message within timeout", "idle_polls", idle)

		case StateProcessing:
			if err := c.handle(ctx, d, &summary); err != nil {
				c.setState(StateFailed)
				c.logger.Error("broker error, stopping consumer",
					"error", err,
					"message_id", d.MessageID,
					"acked", d.Acked(),
				)
				summary.Reason = ReasonFailed
				return summary, err
			}
			c.setState(StateWaiting)
		}
	}
}

// handle обрабатывает одно сообщение: decode → compute → publish → ack.
// Возвращает только фатальные ошибки брокера.
func (c *Consumer) handle(ctx context.Context, d *mq.Delivery, summary *Summary) error {
	logger := telemetry.WithMessageID(c.logger, d.MessageID)

	// Начатая обработка доводится до конца независимо от отмены ctx.
	ctx = context.WithoutCancel(ctx)

	task, err := codec.DecodeTask(d.Body)
	if err != nil {
		logger.Warn("failed to parse task, acknowledging and skipping",
			"error", err,
			"body", truncate(d.Body, maxLoggedBody),
			"redelivered", d.Redelivered,
		)

		c.setState(StateAcking)
		if err := c.broker.Ack(d); err != nil {
			return fmt.Errorf("%w: %w", ErrAck, err)
		}

		summary.ParseFailures++
		c.metrics.ParseFailures.Inc()
		return nil
	}

	result := c.compute(task)
	elapsed := time.Duration(result.ElapsedMillis()) * time.Millisecond

	if _, err := c.publisher.Reply(ctx, mq.QueueResults, d.MessageID, codec.EncodeResult(result)); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishResult, err)
	}
	c.metrics.ResultsPublished.Inc()

	summary.TotalElapsed += elapsed
	c.metrics.ComputeDuration.Observe(result.Elapsed.Seconds())

	logger.Info(fmt.Sprintf("multiplication done, sum=%d, time=%d ms", result.Checksum, result.ElapsedMillis()),
		"size", task.Size,
		"checksum", result.Checksum,
		"elapsed_ms", result.ElapsedMillis(),
	)

	c.setState(StateAcking)
	if err := c.broker.Ack(d); err != nil {
		return fmt.Errorf("%w: %w", ErrAck, err)
	}

	summary.Processed++
	c.metrics.TasksProcessed.Inc()
	return nil
}

// LogSummary пишет итоговую строку сессии.
func LogSummary(logger *slog.Logger, s Summary) {
	logger.Info(fmt.Sprintf("total processing time %d ms", s.TotalElapsed.Milliseconds()),
		"processed", s.Processed,
		"parse_failures", s.ParseFailures,
		"total_elapsed_ms", s.TotalElapsed.Milliseconds(),
		"reason", s.Reason,
	)
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + fmt.Sprintf("... (%d bytes)", len(body))
}
