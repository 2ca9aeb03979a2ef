// Package telemetry обеспечивает наблюдаемость producer'а и consumer'а.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики и HTTP endpoint /metrics, /healthz
//
// Каждое значимое событие (повтор соединения, обработанная задача,
// ошибка разбора, остановка по простою или сигналу) — одна строка лога.
package telemetry
