package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shaiso/matq/internal/domain"
)

// EncodeTask кодирует задачу: N, затем A и B построчно, через одиночные пробелы.
func EncodeTask(task domain.Task) ([]byte, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	n := task.Size
	buf := make([]byte, 0, (1+2*n*n)*2)
	buf = strconv.AppendInt(buf, int64(n), 10)
	for _, m := range []domain.Matrix{task.A, task.B} {
		for _, v := range m.Values() {
			buf = append(buf, ' ')
			buf = strconv.AppendInt(buf, v, 10)
		}
	}
	return buf, nil
}

// DecodeTask разбирает тело сообщения в задачу.
//
// Ошибки (все оборачивают ErrParse):
//   - пустое тело или нечисловой N
//   - N <= 0
//   - меньше 2·N² элементов после N
//   - нечисловой токен в используемом диапазоне
func DecodeTask(body []byte) (domain.Task, error) {
	tokens := strings.Fields(string(body))
	if len(tokens) == 0 {
		return domain.Task{}, &ParseError{Pos: -1, Reason: "empty body"}
	}

	n, err := strconv.Atoi(tokens[0])
	if err != nil {
		return domain.Task{}, &ParseError{Pos: 0, Token: tokens[0], Reason: "size is not an integer", Err: err}
	}
	if n <= 0 {
		return domain.Task{}, &ParseError{Pos: 0, Token: tokens[0], Reason: "size must be positive"}
	}

	// при n > len(tokens) элементов заведомо не хватит, а n*n может переполниться
	if n > len(tokens) || 2*n*n > len(tokens)-1 {
		return domain.Task{}, &ParseError{
			Pos:    -1,
			Reason: fmt.Sprintf("need 2*%d^2 elements, got %d", n, len(tokens)-1),
		}
	}
	cells := n * n

	a, err := decodeMatrix(tokens, 1, n)
	if err != nil {
		return domain.Task{}, err
	}
	b, err := decodeMatrix(tokens, 1+cells, n)
	if err != nil {
		return domain.Task{}, err
	}

	task, err := domain.NewTask(a, b)
	if err != nil {
		return domain.Task{}, &ParseError{Pos: -1, Reason: err.Error(), Err: err}
	}
	return task, nil
}

// decodeMatrix заполняет матрицу N×N токенами начиная с offset.
func decodeMatrix(tokens []string, offset, n int) (domain.Matrix, error) {
	m := domain.NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pos := offset + i*n + j
			v, err := strconv.ParseInt(tokens[pos], 10, 64)
			if err != nil {
				return domain.Matrix{}, &ParseError{Pos: pos, Token: tokens[pos], Reason: "element is not an integer", Err: err}
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}
