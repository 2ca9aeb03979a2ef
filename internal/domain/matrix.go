package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTask — задача не удовлетворяет инвариантам.
var ErrInvalidTask = errors.New("invalid task")

// Matrix — квадратная матрица N×N, хранится построчно.
type Matrix struct {
	n    int
	data []int64
}

// NewMatrix создаёт нулевую матрицу N×N.
func NewMatrix(n int) Matrix {
	if n < 0 {
		n = 0
	}
	return Matrix{n: n, data: make([]int64, n*n)}
}

// MatrixFromRows создаёт матрицу из строк. Все строки должны иметь длину len(rows).
func MatrixFromRows(rows [][]int64) (Matrix, error) {
	n := len(rows)
	m := NewMatrix(n)
	for i, row := range rows {
		if len(row) != n {
			return Matrix{}, fmt.Errorf("%w: row %d has %d elements, want %d", ErrInvalidTask, i, len(row), n)
		}
		copy(m.data[i*n:(i+1)*n], row)
	}
	return m, nil
}

// Size возвращает размерность N.
func (m Matrix) Size() int {
	return m.n
}

// At возвращает элемент [i][j].
func (m Matrix) At(i, j int) int64 {
	return m.data[i*m.n+j]
}

// Set устанавливает элемент [i][j].
func (m Matrix) Set(i, j int, v int64) {
	m.data[i*m.n+j] = v
}

// Values возвращает элементы в порядке row-major.
// Возвращаемый срез нельзя изменять.
func (m Matrix) Values() []int64 {
	return m.data
}

// Equal сравнивает матрицы поэлементно.
func (m Matrix) Equal(other Matrix) bool {
	if m.n != other.n {
		return false
	}
	for i := range m.data {
		if m.data[i] != other.data[i] {
			return false
		}
	}
	return true
}
