package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "debug", LogFormat: "json"}

	logger := SetupLogger(cfg, applog.ComponentWorker, &buf)
	logger.Debug("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "hello" || rec[applog.FieldComponent] != applog.ComponentWorker {
		t.Errorf("record = %v", rec)
	}
}

func TestSetupLoggerUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "verbose", LogFormat: "text"}

	logger := SetupLogger(cfg, "", &buf)
	if !strings.Contains(buf.String(), "Unknown LOG_LEVEL") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
	buf.Reset()
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at the fallback level, got %q", buf.String())
	}
}
