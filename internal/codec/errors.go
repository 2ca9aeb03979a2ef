package codec

import (
	"errors"
	"fmt"
)

// ErrParse — тело сообщения не является корректной задачей или результатом.
var ErrParse = errors.New("parse error")

// ParseError — ошибка разбора с позицией токена.
type ParseError struct {
	Pos    int    // индекс токена (0 — размерность N), -1 если неприменимо
	Token  string // токен, вызвавший ошибку
	Reason string // описание
	Err    error  // базовая ошибка (strconv и т.п.)
}

// Error реализует интерфейс error.
func (e *ParseError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("parse error at token %d (%q): %s", e.Pos, e.Token, e.Reason)
	}
	return "parse error: " + e.Reason
}

// Unwrap возвращает базовую ошибку.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать через errors.Is(err, ErrParse).
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
