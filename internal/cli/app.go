package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/shaiso/matq/internal/config"
	"github.com/shaiso/matq/internal/mq"
	"github.com/shaiso/matq/internal/telemetry"
)

// App — общие зависимости команд.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *telemetry.Metrics

	// Out — stdout для итогов (подменяется в тестах).
	Out io.Writer

	jsonOutput bool

	// connect подменяется в тестах.
	connect func(ctx context.Context, role string) (mq.Broker, error)
}

// NewApp создаёт App с метриками в отдельном registry.
func NewApp(cfg config.Config, logger *slog.Logger) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  telemetry.NewMetrics(reg),
		Out:      os.Stdout,
	}
	a.connect = a.dial
	return a
}

// NewRootCmd создаёт корневую команду matq.
func NewRootCmd(app *App, version string) *cobra.Command {
	cfg := &app.Config

	rootCmd := &cobra.Command{
		Use:           "matq",
		Short:         "matq — distributes matrix multiplication tasks through RabbitMQ",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.Broker.Host, "host", cfg.Broker.Host, "RabbitMQ host")
	flags.IntVar(&cfg.Broker.Port, "port", cfg.Broker.Port, "RabbitMQ port")
	flags.StringVar(&cfg.Broker.URL, "url", cfg.Broker.URL, "RabbitMQ URL (overrides host/port)")
	flags.DurationVar(&cfg.Broker.RetryDelay, "retry-delay", cfg.Broker.RetryDelay, "Delay between connection attempts")
	flags.IntVar(&cfg.Broker.MaxAttempts, "max-attempts", cfg.Broker.MaxAttempts, "Connection attempts before giving up (0 = retry forever)")
	flags.BoolVar(&cfg.Broker.Durable, "durable", cfg.Broker.Durable, "Declare queues as durable")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Address for /metrics and /healthz (empty to disable)")
	flags.BoolVar(&app.jsonOutput, "json", false, "Print the final summary as JSON on stdout (logs go to stderr)")

	rootCmd.AddCommand(
		newProducerCmd(app),
		newConsumerCmd(app),
		newLocalCmd(app),
	)

	return rootCmd
}

// output создаёт Output для итогов.
func (a *App) output() *Output {
	return NewOutput(a.Out, a.jsonOutput)
}

// signalContext отменяется по SIGINT/SIGTERM. Отмена происходит один раз
// и является единственным способом запросить остановку цикла.
func (a *App) signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("received shutdown signal, finishing current operation", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// serveMetrics запускает HTTP сервер метрик в фоне.
func (a *App) serveMetrics(ctx context.Context) {
	if a.Config.MetricsAddr == "" {
		return
	}
	go func() {
		if err := telemetry.ServeMetrics(ctx, a.Config.MetricsAddr, a.Registry, a.Logger); err != nil {
			a.Logger.Error("metrics server error", "error", err)
		}
	}()
}

// dial подключается к RabbitMQ с повторами при транспортных ошибках.
func (a *App) dial(ctx context.Context, role string) (mq.Broker, error) {
	b := a.Config.Broker
	a.Logger.Info("connecting to RabbitMQ", "url", b.Redacted())

	broker, err := mq.Dial(ctx, mq.DialConfig{
		URL:       b.DSN(),
		Name:      "matq-" + role,
		Retry:     mq.RetryPolicy{Delay: b.RetryDelay, MaxAttempts: b.MaxAttempts},
		Durable:   b.Durable,
		OnAttempt: func(int) { a.Metrics.DialAttempts.Inc() },
		Logger:    a.Logger,
	})
	if err != nil {
		return nil, err
	}

	a.Logger.Debug("broker topology" + mq.TopologyInfo())
	return broker, nil
}

// closeBroker закрывает соединение; ошибка закрытия только логируется.
func (a *App) closeBroker(b mq.Broker) {
	if err := b.Close(); err != nil {
		a.Logger.Warn("failed to close broker connection", "error", err)
	}
}

// connectOrExit подключается к брокеру. Отмена ctx во время подключения —
// штатное завершение: возвращается (nil, nil). Фатальная ошибка
// (аутентификация, канал) возвращается и при отменённом ctx.
func (a *App) connectOrExit(ctx context.Context, role string) (mq.Broker, error) {
	broker, err := a.connect(ctx, role)
	if err == nil {
		return broker, nil
	}
	if !mq.IsFatal(err) && ctx.Err() != nil {
		a.Logger.Info("shutdown requested before broker connection was established")
		return nil, nil
	}

	a.Logger.Error("failed to connect to RabbitMQ", "error", err)
	return nil, fmt.Errorf("connect to broker: %w", err)
}
