package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/matq/internal/producer"
	"github.com/shaiso/matq/internal/telemetry"
)

// producerSummaryJSON — итог producer'а для --json.
type producerSummaryJSON struct {
	Sent        int   `json:"sent"`
	ElapsedMs   int64 `json:"elapsed_ms"`
	Interrupted bool  `json:"interrupted"`
}

func newProducerCmd(app *App) *cobra.Command {
	cfg := &app.Config

	cmd := &cobra.Command{
		Use:   "producer",
		Short: "Publish random matrix multiplication tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Broker.Validate(); err != nil {
				return err
			}
			if err := cfg.Producer.Validate(); err != nil {
				return err
			}

			ctx, stop := app.signalContext(cmd.Context())
			defer stop()
			app.serveMetrics(ctx)

			logger := telemetry.WithRole(app.Logger, "producer")

			broker, err := app.connectOrExit(ctx, "producer")
			if err != nil || broker == nil {
				return err
			}

			p := producer.New(producer.Config{
				Broker:     broker,
				TaskCount:  cfg.Producer.TaskCount,
				Infinite:   cfg.Producer.Infinite,
				MatrixSize: cfg.Producer.MatrixSize,
				RateLimit:  cfg.Producer.RateLimit,
				Metrics:    app.Metrics,
				Logger:     logger,
			})

			summary, runErr := p.Run(ctx)
			producer.LogSummary(logger, summary)
			app.closeBroker(broker)
			printProducerSummary(app.output(), summary)

			if runErr != nil {
				logger.Error("producer stopped on error", "error", runErr)
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&cfg.Producer.TaskCount, "count", "n", cfg.Producer.TaskCount, "Number of tasks to publish")
	cmd.Flags().IntVarP(&cfg.Producer.MatrixSize, "size", "m", cfg.Producer.MatrixSize, "Matrix dimension N")
	cmd.Flags().BoolVarP(&cfg.Producer.Infinite, "infinite", "i", cfg.Producer.Infinite, "Publish until interrupted")
	cmd.Flags().DurationVar(&cfg.Producer.RateLimit, "rate", cfg.Producer.RateLimit, "Pause between publications")

	return cmd
}

func printProducerSummary(out *Output, s producer.Summary) {
	out.Print(
		[]string{"SENT", "ELAPSED_MS", "INTERRUPTED"},
		[][]string{{
			strconv.Itoa(s.Sent),
			strconv.FormatInt(s.Elapsed.Milliseconds(), 10),
			strconv.FormatBool(s.Interrupted),
		}},
		producerSummaryJSON{
			Sent:        s.Sent,
			ElapsedMs:   s.Elapsed.Milliseconds(),
			Interrupted: s.Interrupted,
		},
	)
}
