package codec

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/shaiso/matq/internal/domain"
)

func mustMatrix(t *testing.T, rows [][]int64) domain.Matrix {
	t.Helper()
	m, err := domain.MatrixFromRows(rows)
	if err != nil {
		t.Fatalf("build matrix: %v", err)
	}
	return m
}

func randomTask(rng *rand.Rand, n int) domain.Task {
	a := domain.NewMatrix(n)
	b := domain.NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, rng.Int64N(10))
			b.Set(i, j, rng.Int64N(10))
		}
	}
	return domain.Task{Size: n, A: a, B: b}
}

func TestEncodeTask_Format(t *testing.T) {
	task := domain.Task{
		Size: 2,
		A:    mustMatrix(t, [][]int64{{1, 2}, {3, 4}}),
		B:    mustMatrix(t, [][]int64{{5, 6}, {7, 8}}),
	}

	body, err := EncodeTask(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "2 1 2 3 4 5 6 7 8"
	if string(body) != want {
		t.Errorf("expected %q, got %q", want, body)
	}
}

func TestEncodeTask_Invalid(t *testing.T) {
	_, err := EncodeTask(domain.Task{Size: 0})
	if !errors.Is(err, domain.ErrInvalidTask) {
		t.Errorf("expected ErrInvalidTask, got %v", err)
	}
}

func TestDecodeTask_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for n := 1; n <= 50; n++ {
		task := randomTask(rng, n)

		body, err := EncodeTask(task)
		if err != nil {
			t.Fatalf("n=%d: encode: %v", n, err)
		}

		decoded, err := DecodeTask(body)
		if err != nil {
			t.Fatalf("n=%d: decode: %v", n, err)
		}
		if !decoded.Equal(task) {
			t.Fatalf("n=%d: round trip mismatch", n)
		}
	}
}

func TestDecodeTask_Lenient(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "trailing space (producer style)", body: "1 3 4 "},
		{name: "extra trailing tokens", body: "1 3 4 99 100"},
		{name: "mixed whitespace", body: "1\t3\n4"},
		{name: "extra tokens not numeric", body: "1 3 4 garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := DecodeTask([]byte(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if task.Size != 1 || task.A.At(0, 0) != 3 || task.B.At(0, 0) != 4 {
				t.Errorf("unexpected task: %+v", task)
			}
		})
	}
}

func TestDecodeTask_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "only whitespace", body: "   "},
		{name: "zero size", body: "0"},
		{name: "negative size", body: "-2 1 2 3 4 5 6 7 8"},
		{name: "size not numeric", body: "two 1 2 3 4 5 6 7 8"},
		{name: "too few tokens", body: "2 1 2 3 4 5 6 7"},
		{name: "only size", body: "3"},
		{name: "non-numeric in A", body: "2 1 x 3 4 5 6 7 8"},
		{name: "non-numeric in B", body: "2 1 2 3 4 5 6 7 8.5"},
		{name: "huge size", body: "9223372036854775807 1 2"},
		{name: "size overflows int", body: "99999999999999999999 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTask([]byte(tt.body))
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}

			var pErr *ParseError
			if !errors.As(err, &pErr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
		})
	}
}

func TestDecodeTask_ErrorPosition(t *testing.T) {
	_, err := DecodeTask([]byte("2 1 2 3 4 5 oops 7 8"))

	var pErr *ParseError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pErr.Pos != 6 || pErr.Token != "oops" {
		t.Errorf("expected token 6 %q, got %d %q", "oops", pErr.Pos, pErr.Token)
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Errorf("error should mention the token: %v", err)
	}
}
