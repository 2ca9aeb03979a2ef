// Package compute — вычислительное ядро: умножение матриц и свёртка в контрольную сумму.
package compute

import (
	"time"

	"github.com/shaiso/matq/internal/domain"
)

// Clock возвращает текущее время. Подменяется в тестах.
type Clock func() time.Time

// Multiply перемножает A×B классическим тройным циклом.
// Переполнение int64 не контролируется.
func Multiply(a, b domain.Matrix) domain.Matrix {
	n := a.Size()
	c := domain.NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var acc int64
			for k := 0; k < n; k++ {
				acc += a.At(i, k) * b.At(k, j)
			}
			c.Set(i, j, acc)
		}
	}
	return c
}

// Checksum возвращает сумму всех элементов матрицы.
func Checksum(m domain.Matrix) int64 {
	var sum int64
	for _, v := range m.Values() {
		sum += v
	}
	return sum
}

// Computer выполняет задачи и замеряет время умножения.
type Computer struct {
	now Clock
}

// New создаёт Computer. Если now == nil, используется time.Now.
func New(now Clock) *Computer {
	if now == nil {
		now = time.Now
	}
	return &Computer{now: now}
}

// Compute выполняет задачу. Время замеряется только вокруг умножения.
func (c *Computer) Compute(task domain.Task) domain.Result {
	start := c.now()
	product := Multiply(task.A, task.B)
	elapsed := c.now().Sub(start)

	if elapsed < 0 {
		elapsed = 0
	}

	return domain.Result{
		Checksum: Checksum(product),
		Elapsed:  elapsed,
	}
}

// Compute выполняет задачу с системными часами.
func Compute(task domain.Task) domain.Result {
	return New(nil).Compute(task)
}
