package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/matq/internal/consumer"
	"github.com/shaiso/matq/internal/mq"
	"github.com/shaiso/matq/internal/producer"
	"github.com/shaiso/matq/internal/telemetry"
)

// newLocalCmd — producer и consumer'ы в одном процессе поверх mq.MemoryServer.
// Используется для smoke-проверок без RabbitMQ.
func newLocalCmd(app *App) *cobra.Command {
	cfg := &app.Config
	consumers := 1

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Run producer and consumers in-process against an in-memory broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Producer.Validate(); err != nil {
				return err
			}
			if err := cfg.Consumer.Validate(); err != nil {
				return err
			}
			if consumers <= 0 {
				return fmt.Errorf("consumers must be positive, got %d", consumers)
			}

			ctx, stop := app.signalContext(cmd.Context())
			defer stop()
			app.serveMetrics(ctx)

			server := mq.NewMemoryServer()
			summaries := make([]consumer.Summary, consumers)

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				logger := telemetry.WithRole(app.Logger, "producer")
				broker := server.Connect(logger)
				defer app.closeBroker(broker)

				summary, err := producer.New(producer.Config{
					Broker:     broker,
					TaskCount:  cfg.Producer.TaskCount,
					Infinite:   cfg.Producer.Infinite,
					MatrixSize: cfg.Producer.MatrixSize,
					RateLimit:  cfg.Producer.RateLimit,
					Metrics:    app.Metrics,
					Logger:     logger,
				}).Run(gctx)
				producer.LogSummary(logger, summary)
				return err
			})

			for i := range consumers {
				g.Go(func() error {
					logger := telemetry.WithRole(app.Logger, "consumer").With("consumer", i+1)
					broker := server.Connect(logger)
					defer app.closeBroker(broker)

					summary, err := consumer.New(consumer.Config{
						Broker:         broker,
						ConsumeTimeout: cfg.Consumer.ConsumeTimeout,
						IdleThreshold:  cfg.Consumer.IdleThreshold,
						Metrics:        app.Metrics,
						Logger:         logger,
					}).Run(gctx)
					consumer.LogSummary(logger, summary)
					summaries[i] = summary
					return err
				})
			}

			err := g.Wait()
			printConsumerSummary(app.output(), mergeSummaries(summaries))
			return err
		},
	}

	cmd.Flags().IntVarP(&cfg.Producer.TaskCount, "count", "n", cfg.Producer.TaskCount, "Number of tasks to publish")
	cmd.Flags().IntVarP(&cfg.Producer.MatrixSize, "size", "m", cfg.Producer.MatrixSize, "Matrix dimension N")
	cmd.Flags().BoolVarP(&cfg.Producer.Infinite, "infinite", "i", cfg.Producer.Infinite, "Publish until interrupted")
	cmd.Flags().DurationVar(&cfg.Producer.RateLimit, "rate", cfg.Producer.RateLimit, "Pause between publications")
	cmd.Flags().DurationVar(&cfg.Consumer.ConsumeTimeout, "timeout", cfg.Consumer.ConsumeTimeout, "Maximum wait for one message")
	cmd.Flags().IntVar(&cfg.Consumer.IdleThreshold, "idle-threshold", cfg.Consumer.IdleThreshold, "Consecutive empty waits before shutting down")
	cmd.Flags().IntVar(&consumers, "consumers", consumers, "Number of competing consumers")

	return cmd
}

// mergeSummaries складывает итоги нескольких consumer'ов.
// Причина выхода — первая отличная от idle, если такая есть.
func mergeSummaries(summaries []consumer.Summary) consumer.Summary {
	var total consumer.Summary
	total.Reason = consumer.ReasonIdle

	for _, s := range summaries {
		total.Processed += s.Processed
		total.ParseFailures += s.ParseFailures
		total.IdlePolls += s.IdlePolls
		total.TotalElapsed += s.TotalElapsed
		if s.Reason != consumer.ReasonIdle && total.Reason == consumer.ReasonIdle {
			total.Reason = s.Reason
		}
	}
	return total
}
