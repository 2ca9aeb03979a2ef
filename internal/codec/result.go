package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/matq/internal/domain"
)

// EncodeResult кодирует результат как "SUM=<checksum> TIME=<ms>ms".
func EncodeResult(r domain.Result) []byte {
	return []byte(fmt.Sprintf("SUM=%d TIME=%dms", r.Checksum, r.ElapsedMillis()))
}

// ParseResult разбирает строку результата.
// Система результаты не читает; функция нужна для проверок и внешних инструментов.
func ParseResult(body []byte) (domain.Result, error) {
	fields := strings.Fields(string(body))
	if len(fields) != 2 {
		return domain.Result{}, &ParseError{Pos: -1, Reason: fmt.Sprintf("expected 2 fields, got %d", len(fields))}
	}

	sumStr, ok := strings.CutPrefix(fields[0], "SUM=")
	if !ok {
		return domain.Result{}, &ParseError{Pos: 0, Token: fields[0], Reason: "missing SUM= prefix"}
	}
	sum, err := strconv.ParseInt(sumStr, 10, 64)
	if err != nil {
		return domain.Result{}, &ParseError{Pos: 0, Token: fields[0], Reason: "checksum is not an integer", Err: err}
	}

	msStr, ok := strings.CutPrefix(fields[1], "TIME=")
	if ok {
		msStr, ok = strings.CutSuffix(msStr, "ms")
	}
	if !ok {
		return domain.Result{}, &ParseError{Pos: 1, Token: fields[1], Reason: "expected TIME=<n>ms"}
	}
	ms, err := strconv.ParseInt(msStr, 10, 64)
	if err != nil || ms < 0 {
		return domain.Result{}, &ParseError{Pos: 1, Token: fields[1], Reason: "elapsed time is not a non-negative integer", Err: err}
	}

	return domain.Result{Checksum: sum, Elapsed: time.Duration(ms) * time.Millisecond}, nil
}
