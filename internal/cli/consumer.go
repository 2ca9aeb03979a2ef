package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/matq/internal/consumer"
	"github.com/shaiso/matq/internal/telemetry"
)

// consumerSummaryJSON — итог consumer'а для --json.
type consumerSummaryJSON struct {
	Processed      int    `json:"processed"`
	ParseFailures  int    `json:"parse_failures"`
	TotalElapsedMs int64  `json:"total_elapsed_ms"`
	Reason         string `json:"reason"`
}

func newConsumerCmd(app *App) *cobra.Command {
	cfg := &app.Config

	cmd := &cobra.Command{
		Use:   "consumer",
		Short: "Consume tasks, compute results and acknowledge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Broker.Validate(); err != nil {
				return err
			}
			if err := cfg.Consumer.Validate(); err != nil {
				return err
			}

			ctx, stop := app.signalContext(cmd.Context())
			defer stop()
			app.serveMetrics(ctx)

			logger := telemetry.WithRole(app.Logger, "consumer")

			broker, err := app.connectOrExit(ctx, "consumer")
			if err != nil || broker == nil {
				return err
			}

			c := consumer.New(consumer.Config{
				Broker:         broker,
				ConsumeTimeout: cfg.Consumer.ConsumeTimeout,
				IdleThreshold:  cfg.Consumer.IdleThreshold,
				Metrics:        app.Metrics,
				Logger:         logger,
			})

			summary, runErr := c.Run(ctx)
			consumer.LogSummary(logger, summary)
			app.closeBroker(broker)
			printConsumerSummary(app.output(), summary)

			return runErr
		},
	}

	cmd.Flags().DurationVar(&cfg.Consumer.ConsumeTimeout, "timeout", cfg.Consumer.ConsumeTimeout, "Maximum wait for one message")
	cmd.Flags().IntVar(&cfg.Consumer.IdleThreshold, "idle-threshold", cfg.Consumer.IdleThreshold, "Consecutive empty waits before shutting down")

	return cmd
}

func printConsumerSummary(out *Output, s consumer.Summary) {
	out.Print(
		[]string{"PROCESSED", "PARSE_FAILURES", "TOTAL_ELAPSED_MS", "REASON"},
		[][]string{{
			strconv.Itoa(s.Processed),
			strconv.Itoa(s.ParseFailures),
			strconv.FormatInt(s.TotalElapsed.Milliseconds(), 10),
			string(s.Reason),
		}},
		consumerSummaryJSON{
			Processed:      s.Processed,
			ParseFailures:  s.ParseFailures,
			TotalElapsedMs: s.TotalElapsed.Milliseconds(),
			Reason:         string(s.Reason),
		},
	)
}
