package domain

import (
	"fmt"
	"time"
)

// Task — задача на умножение двух квадратных матриц.
//
// Инвариант: A и B имеют одинаковую размерность Size > 0.
// В закодированном виде задача содержит ровно 1 + 2·N² чисел.
type Task struct {
	// Size — размерность N.
	Size int

	// A — левый множитель.
	A Matrix

	// B — правый множитель.
	B Matrix
}

// NewTask создаёт задачу и проверяет инварианты.
func NewTask(a, b Matrix) (Task, error) {
	t := Task{Size: a.Size(), A: a, B: b}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Validate проверяет инварианты задачи.
func (t Task) Validate() error {
	if t.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidTask, t.Size)
	}
	if t.A.Size() != t.Size || t.B.Size() != t.Size {
		return fmt.Errorf("%w: matrices must be %dx%d, got %dx%d and %dx%d",
			ErrInvalidTask, t.Size, t.Size, t.A.Size(), t.A.Size(), t.B.Size(), t.B.Size())
	}
	return nil
}

// Equal сравнивает задачи.
func (t Task) Equal(other Task) bool {
	return t.Size == other.Size && t.A.Equal(other.A) && t.B.Equal(other.B)
}

// Result — результат выполнения задачи.
type Result struct {
	// Checksum — сумма всех элементов произведения A×B.
	Checksum int64

	// Elapsed — время умножения (без разбора и I/O).
	Elapsed time.Duration
}

// ElapsedMillis возвращает время в целых миллисекундах (с округлением вниз).
func (r Result) ElapsedMillis() int64 {
	return r.Elapsed.Milliseconds()
}
