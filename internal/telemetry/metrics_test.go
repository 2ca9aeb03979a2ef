package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.TasksProcessed.Inc()
	m.TasksProcessed.Inc()
	m.ParseFailures.Inc()

	if got := testutil.ToFloat64(m.TasksProcessed); got != 2 {
		t.Errorf("expected 2 processed, got %v", got)
	}

	count, err := testutil.GatherAndCount(reg, "matq_tasks_processed_total", "matq_parse_failures_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 metric series, got %d", count)
	}
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	m := NewMetrics(nil)
	m.DialAttempts.Inc()

	if got := testutil.ToFloat64(m.DialAttempts); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
}

func TestMetricsMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.TasksPublished.Inc()

	server := httptest.NewServer(NewMetricsMux(reg))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "matq_tasks_published_total 1") {
		t.Errorf("metrics output missing counter:\n%s", buf.String())
	}
}

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")
	WithRole(logger, "consumer").Info("task processed", "checksum", 134)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if line["role"] != "consumer" || line["msg"] != "task processed" {
		t.Errorf("unexpected log line: %v", line)
	}

	buf.Reset()
	NewLogger(&buf, slog.LevelInfo, "text").Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line should be filtered at INFO, got %q", buf.String())
	}
}

func TestSetupLogger_WritesToGivenWriter(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "INFO")

	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupLogger(&buf)
	logger.Info("started")
	slog.Info("via default")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines in writer, got %q", buf.String())
	}
	for _, l := range lines {
		if !json.Valid([]byte(l)) {
			t.Errorf("expected JSON line, got %q", l)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG": slog.LevelDebug,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"ERROR": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
