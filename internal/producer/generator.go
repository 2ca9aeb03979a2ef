package producer

import (
	"math/rand/v2"
	"time"

	"github.com/shaiso/matq/internal/domain"
)

// DefaultMaxValue — верхняя граница элементов матриц (включительно).
const DefaultMaxValue = 9

// Generator создаёт случайные задачи.
type Generator struct {
	rng      *rand.Rand
	maxValue int64
}

// NewGenerator создаёт генератор с заданным seed и элементами в [0, maxValue].
func NewGenerator(seed uint64, maxValue int64) *Generator {
	if maxValue < 0 {
		maxValue = DefaultMaxValue
	}
	return &Generator{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		maxValue: maxValue,
	}
}

// NewTimeSeededGenerator создаёт генератор с seed от текущего времени.
func NewTimeSeededGenerator() *Generator {
	return NewGenerator(uint64(time.Now().UnixNano()), DefaultMaxValue)
}

// Next генерирует задачу размерности n.
func (g *Generator) Next(n int) domain.Task {
	return domain.Task{
		Size: n,
		A:    g.matrix(n),
		B:    g.matrix(n),
	}
}

func (g *Generator) matrix(n int) domain.Matrix {
	m := domain.NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, g.rng.Int64N(g.maxValue+1))
		}
	}
	return m
}
