package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel определяет уровень логирования из переменной окружения.
// Возможные значения: DEBUG, INFO, WARN, ERROR
// По умолчанию: INFO
func LogLevel() slog.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// ParseLevel разбирает имя уровня без учёта регистра.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// Формат вывода определяется переменной LOG_FORMAT:
//   - "json" (по умолчанию) — JSON формат для production
//   - "text" — человекочитаемый формат для разработки
//
// Логи пишутся в w (в matq — stderr), stdout остаётся для итогов команд.
func SetupLogger(w io.Writer) *slog.Logger {
	logger := NewLogger(w, LogLevel(), os.Getenv("LOG_FORMAT"))
	slog.SetDefault(logger)
	return logger
}

// NewLogger создаёт логгер с заданными writer, уровнем и форматом.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// WithRole возвращает логгер с добавленным role (producer/consumer).
func WithRole(logger *slog.Logger, role string) *slog.Logger {
	return logger.With("role", role)
}

// WithMessageID возвращает логгер с добавленным message_id.
func WithMessageID(logger *slog.Logger, messageID string) *slog.Logger {
	return logger.With("message_id", messageID)
}
