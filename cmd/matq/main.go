// matq — распределённое умножение матриц через RabbitMQ.
//
// Использование:
//
//	matq [--host HOST] [--port PORT] [--json] <command> [flags]
//
// Команды:
//
//	producer  Публикует задачи в очередь tasks
//	consumer  Обрабатывает задачи и публикует результаты в results
//	local     Producer и consumer'ы в одном процессе без RabbitMQ
package main

import (
	"fmt"
	"os"

	"github.com/shaiso/matq/internal/cli"
	"github.com/shaiso/matq/internal/config"
	"github.com/shaiso/matq/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	logger := telemetry.SetupLogger(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	app := cli.NewApp(cfg, logger)
	rootCmd := cli.NewRootCmd(app, version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
