package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize text logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := InitWithFormat(FormatJSON); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := InitWithFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if err := Sync(); err != nil {
		t.Errorf("failed to sync logger: %v", err)
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, FormatJSON, slog.LevelDebug)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	ctx := context.Background()
	l.Named("storage").With(String("bucket", "results")).Warn(ctx, "malformed record",
		String("key", "evaluation-results/a/1.json"),
		Int("line", 3),
		Int64("ts", 1700000000),
		Bool("skipped", true),
		Duration("elapsed", 2*time.Second),
		Error(errors.New("boom")),
	)

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not json: %v (%s)", err, buf.String())
	}
	if out["msg"] != "malformed record" {
		t.Errorf("unexpected msg: %v", out["msg"])
	}
	group, ok := out["storage"].(map[string]any)
	if !ok {
		t.Fatalf("expected storage group, got %v", out)
	}
	if group["key"] != "evaluation-results/a/1.json" {
		t.Errorf("unexpected key: %v", group["key"])
	}
	if !strings.Contains(group["source"].(string), "logger_test.go") {
		t.Errorf("source should point at the caller, got %v", group["source"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, FormatText, slog.LevelWarn)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	l.Error(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("error should be written, got %q", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "", "WARN", "warning", "error"} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("level %q: unexpected error %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}
	namedLogger.Info(context.Background(), "test message")
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Error(context.Background(), "nothing happens", String("k", "v"))
	if GetOrNop() == nil {
		t.Fatal("GetOrNop returned nil")
	}
}
