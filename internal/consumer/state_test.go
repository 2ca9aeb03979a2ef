package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shaiso/matq/internal/mq"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name      string
		outcome   Outcome
		idle      int
		shutdown  bool
		wantState State
		wantIdle  int
	}{
		{name: "message resets idle", outcome: OutcomeMessage, idle: 7, wantState: StateProcessing, wantIdle: 0},
		{name: "first idle", outcome: OutcomeIdle, idle: 0, wantState: StateWaiting, wantIdle: 1},
		{name: "ninth idle", outcome: OutcomeIdle, idle: 8, wantState: StateWaiting, wantIdle: 9},
		{name: "tenth idle drains", outcome: OutcomeIdle, idle: 9, wantState: StateDrainingIdle, wantIdle: 10},
		{name: "broker error", outcome: OutcomeError, idle: 3, wantState: StateFailed, wantIdle: 3},
		{name: "shutdown beats message", outcome: OutcomeMessage, idle: 2, shutdown: true, wantState: StateShuttingDown, wantIdle: 2},
		{name: "shutdown beats idle threshold", outcome: OutcomeIdle, idle: 9, shutdown: true, wantState: StateShuttingDown, wantIdle: 9},
		{name: "shutdown beats error", outcome: OutcomeError, shutdown: true, wantState: StateShuttingDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.outcome, tt.idle, tt.shutdown, 10)
			if got.Next != tt.wantState || got.Idle != tt.wantIdle {
				t.Errorf("expected %s/%d, got %s/%d", tt.wantState, tt.wantIdle, got.Next, got.Idle)
			}
		})
	}
}

func TestNext_IdleCounterSequence(t *testing.T) {
	idle := 0
	ticks := 0

	// 8 таймаутов, сообщение на 9-м тике, затем таймауты до остановки
	outcomes := []Outcome{}
	for i := 0; i < 8; i++ {
		outcomes = append(outcomes, OutcomeIdle)
	}
	outcomes = append(outcomes, OutcomeMessage)
	for i := 0; i < 20; i++ {
		outcomes = append(outcomes, OutcomeIdle)
	}

	for _, o := range outcomes {
		ticks++
		tr := Next(o, idle, false, 10)
		idle = tr.Idle

		if ticks == 10 && tr.Next == StateDrainingIdle {
			t.Fatal("message on the 9th tick must reset the idle counter")
		}
		if tr.Next == StateDrainingIdle {
			break
		}
	}

	if ticks != 19 {
		t.Errorf("expected idle shutdown on tick 19, got %d", ticks)
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{err: nil, want: OutcomeMessage},
		{err: mq.ErrIdle, want: OutcomeIdle},
		{err: fmt.Errorf("wrapped: %w", mq.ErrIdle), want: OutcomeIdle},
		{err: mq.ErrBroker, want: OutcomeError},
		{err: context.Canceled, want: OutcomeError},
		{err: errors.New("other"), want: OutcomeError},
	}

	for _, tt := range tests {
		if got := OutcomeOf(tt.err); got != tt.want {
			t.Errorf("OutcomeOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestState_String(t *testing.T) {
	if StateWaiting.String() != "WAITING_FOR_MESSAGE" {
		t.Errorf("unexpected name: %s", StateWaiting)
	}
	if State(99).String() != "UNKNOWN" {
		t.Errorf("unexpected name for unknown state: %s", State(99))
	}
	for _, s := range []State{StateDrainingIdle, StateShuttingDown, StateFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StateWaiting, StateProcessing, StateAcking} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
