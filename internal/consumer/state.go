package consumer

import (
	"context"
	"errors"

	"github.com/shaiso/matq/internal/mq"
)

// State — состояние цикла потребления.
type State int

// Состояния.
const (
	StateWaiting State = iota
	StateProcessing
	StateAcking
	StateDrainingIdle
	StateShuttingDown
	StateFailed
)

var stateNames = map[State]string{
	StateWaiting:      "WAITING_FOR_MESSAGE",
	StateProcessing:   "PROCESSING",
	StateAcking:       "ACKING",
	StateDrainingIdle: "DRAINING_IDLE",
	StateShuttingDown: "SHUTTING_DOWN",
	StateFailed:       "FAILED",
}

// String возвращает имя состояния.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal сообщает, что из состояния цикл выходит.
func (s State) Terminal() bool {
	return s == StateDrainingIdle || s == StateShuttingDown || s == StateFailed
}

// Outcome — чем завершился вызов ConsumeNext.
type Outcome int

// Исходы ConsumeNext.
const (
	OutcomeMessage Outcome = iota
	OutcomeIdle
	OutcomeError
)

// OutcomeOf классифицирует ошибку ConsumeNext.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeMessage
	case errors.Is(err, mq.ErrIdle):
		return OutcomeIdle
	default:
		return OutcomeError
	}
}

// Transition — результат перехода.
type Transition struct {
	// Next — следующее состояние.
	Next State

	// Idle — новое значение счётчика простоя.
	Idle int
}

// Next вычисляет переход после возврата ConsumeNext.
//
// Запрошенная остановка имеет приоритет над любым исходом, включая
// доставленное сообщение. Сообщение сбрасывает счётчик простоя;
// threshold таймаутов подряд переводят в DRAINING_IDLE.
func Next(outcome Outcome, idle int, shutdown bool, threshold int) Transition {
	if shutdown {
		return Transition{Next: StateShuttingDown, Idle: idle}
	}

	switch outcome {
	case OutcomeMessage:
		return Transition{Next: StateProcessing, Idle: 0}

	case OutcomeIdle:
		idle++
		if idle >= threshold {
			return Transition{Next: StateDrainingIdle, Idle: idle}
		}
		return Transition{Next: StateWaiting, Idle: idle}

	default:
		return Transition{Next: StateFailed, Idle: idle}
	}
}

// shutdownRequested сообщает, что ctx отменён (сигнал или внешний cancel).
func shutdownRequested(ctx context.Context) bool {
	return ctx.Err() != nil
}
