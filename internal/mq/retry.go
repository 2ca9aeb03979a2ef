package mq

import (
	"context"
	"fmt"
	"time"
)

// DefaultRetryDelay — пауза между попытками соединения.
const DefaultRetryDelay = 3 * time.Second

// SleepFunc ждёт d или отмены ctx.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext — SleepFunc на реальном таймере.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy — политика повторов с фиксированной задержкой.
type RetryPolicy struct {
	// Delay — пауза между попытками (default: 3s).
	Delay time.Duration

	// MaxAttempts — предел попыток; 0 — без ограничения.
	MaxAttempts int
}

// Do вызывает fn, пока она возвращает ошибку, для которой retryable == true.
//
// Невосстановимая ошибка возвращается сразу. При отмене ctx возвращается ctx.Err().
func (p RetryPolicy) Do(ctx context.Context, sleep SleepFunc, retryable func(error) bool, fn func(attempt int) error) error {
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	if sleep == nil {
		sleep = SleepContext
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}
