package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/matq/internal/codec"
	"github.com/shaiso/matq/internal/mq"
	"github.com/shaiso/matq/internal/telemetry"
)

// Default configuration values.
const (
	defaultMatrixSize = 10
	defaultRateLimit  = 200 * time.Millisecond
)

// Config — конфигурация Producer.
type Config struct {
	// Broker — соединение с брокером.
	Broker mq.Broker

	// TaskCount — количество задач (игнорируется при Infinite).
	TaskCount int

	// Infinite — публиковать до отмены ctx.
	Infinite bool

	// MatrixSize — размерность N (default: 10).
	MatrixSize int

	// RateLimit — пауза между публикациями (default: 200ms, 0 — без паузы).
	RateLimit time.Duration

	// Generator (опционально; если nil — seed от текущего времени).
	Generator *Generator

	// Sleep (опционально; если nil — mq.SleepContext).
	Sleep mq.SleepFunc

	// Now (опционально; если nil — time.Now).
	Now func() time.Time

	// Metrics (опционально).
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// Summary — итог работы producer'а.
type Summary struct {
	// Sent — количество опубликованных задач.
	Sent int

	// Elapsed — общее время работы цикла.
	Elapsed time.Duration

	// Interrupted — цикл остановлен отменой ctx.
	Interrupted bool
}

// Producer публикует задачи в очередь tasks.
type Producer struct {
	broker    mq.Broker
	publisher *mq.Publisher
	generator *Generator

	taskCount  int
	infinite   bool
	matrixSize int
	rateLimit  time.Duration

	sleep   mq.SleepFunc
	now     func() time.Time
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// New создаёт новый Producer.
func New(cfg Config) *Producer {
	matrixSize := cfg.MatrixSize
	if matrixSize <= 0 {
		matrixSize = defaultMatrixSize
	}

	rateLimit := cfg.RateLimit
	if rateLimit < 0 {
		rateLimit = defaultRateLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	generator := cfg.Generator
	if generator == nil {
		generator = NewTimeSeededGenerator()
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = mq.SleepContext
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics(nil)
	}

	return &Producer{
		broker:     cfg.Broker,
		publisher:  mq.NewPublisher(cfg.Broker, logger),
		generator:  generator,
		taskCount:  cfg.TaskCount,
		infinite:   cfg.Infinite,
		matrixSize: matrixSize,
		rateLimit:  rateLimit,
		sleep:      sleep,
		now:        now,
		metrics:    metrics,
		logger:     logger,
	}
}

// Run объявляет очереди и публикует задачи до исчерпания счётчика или отмены ctx.
//
// Отмена ctx не является ошибкой: Run возвращает Summary с Interrupted=true.
// Ошибки брокера фатальны и возвращаются вместе с частичным Summary.
func (p *Producer) Run(ctx context.Context) (summary Summary, err error) {
	if err := mq.SetupTopology(ctx, p.broker); err != nil {
		return Summary{}, fmt.Errorf("setup topology: %w", err)
	}

	p.logger.Info("starting to publish tasks",
		"count", p.countLabel(),
		"matrix_size", p.matrixSize,
		"rate_limit", p.rateLimit,
	)

	start := p.now()
	defer func() {
		summary.Elapsed = p.now().Sub(start)
	}()

	for p.infinite || summary.Sent < p.taskCount {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		if err := p.publishOne(ctx, summary.Sent+1); err != nil {
			return summary, err
		}
		summary.Sent++

		if !p.infinite && summary.Sent >= p.taskCount {
			break
		}

		if p.rateLimit > 0 {
			if err := p.sleep(ctx, p.rateLimit); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					summary.Interrupted = true
					break
				}
				return summary, err
			}
		}
	}

	return summary, nil
}

// publishOne генерирует и публикует одну задачу.
// Публикация не прерывается отменой ctx, чтобы не оставлять частично отправленных задач.
func (p *Producer) publishOne(ctx context.Context, ordinal int) error {
	task := p.generator.Next(p.matrixSize)

	body, err := codec.EncodeTask(task)
	if err != nil {
		return fmt.Errorf("encode task #%d: %w", ordinal, err)
	}

	id, err := p.publisher.Publish(context.WithoutCancel(ctx), mq.QueueTasks, body)
	if err != nil {
		return fmt.Errorf("publish task #%d: %w", ordinal, err)
	}

	p.metrics.TasksPublished.Inc()
	p.logger.Info(fmt.Sprintf("task #%d sent (matrix %dx%d)", ordinal, p.matrixSize, p.matrixSize),
		"ordinal", ordinal,
		"message_id", id,
		"bytes", len(body),
	)

	return nil
}

func (p *Producer) countLabel() string {
	if p.infinite {
		return "unbounded"
	}
	return fmt.Sprint(p.taskCount)
}

// LogSummary пишет итоговую строку.
func LogSummary(logger *slog.Logger, s Summary) {
	logger.Info(fmt.Sprintf("total sent %d tasks, elapsed %d ms", s.Sent, s.Elapsed.Milliseconds()),
		"sent", s.Sent,
		"elapsed_ms", s.Elapsed.Milliseconds(),
		"interrupted", s.Interrupted,
	)
}
