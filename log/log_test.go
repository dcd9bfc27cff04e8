package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLogger_Make_DefaultConfiguration(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf)

	if logger.config.level != LevelInfo {
		t.Errorf("expected default level Info, got %v", logger.config.level)
	}

	if logger.config.caller {
		t.Error("expected caller info disabled by default")
	}

	if logger.config.format != FormatText {
		t.Errorf("expected default format Text, got %v", logger.config.format)
	}

	if !logger.config.pretty {
		t.Error("expected pretty text enabled by default")
	}
}

func TestLogger_ZeroValue_Discards(t *testing.T) {
	var logger Logger

	logger.Info("dropped")
	logger.Error("dropped")

	if logger.Level() != DefaultLevel {
		t.Errorf("zero value Level() = %v, want %v", logger.Level(), DefaultLevel)
	}

	if logger.Format() != DefaultFormat {
		t.Errorf("zero value Format() = %v, want %v", logger.Format(), DefaultFormat)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func(Logger, string, ...slog.Attr)
		minLevel Level
		logged   bool
	}{
		{"trace at trace", (Logger).Trace, LevelTrace, true},
		{"trace at debug", (Logger).Trace, LevelDebug, false},
		{"debug at debug", (Logger).Debug, LevelDebug, true},
		{"debug at info", (Logger).Debug, LevelInfo, false},
		{"info at info", (Logger).Info, LevelInfo, true},
		{"info at warn", (Logger).Info, LevelWarn, false},
		{"warn at warn", (Logger).Warn, LevelWarn, true},
		{"warn at error", (Logger).Warn, LevelError, false},
		{"error at error", (Logger).Error, LevelError, true},
		{"error at trace", (Logger).Error, LevelTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := Make(&buf, WithLevel(tt.minLevel), WithPretty(false))
			tt.logFunc(logger, "test message")

			if hasOutput := buf.Len() > 0; hasOutput != tt.logged {
				t.Errorf("expected logged=%v, got output length=%d",
					tt.logged, buf.Len())
			}
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON))
	logger.Info("test message", slog.String("key", "value"))

	var result map[string]any

	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	if result["msg"] != "test message" {
		t.Errorf("expected msg=test message, got %v", result["msg"])
	}

	if result["key"] != "value" {
		t.Errorf("expected key=value, got %v", result["key"])
	}

	if result["level"] != "INFO" {
		t.Errorf("expected level=INFO, got %v", result["level"])
	}
}

func TestLogger_TraceLevelName(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON), WithLevel(LevelTrace))
	logger.Trace("fine grained")

	var result map[string]any

	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	if result["level"] != "TRACE" {
		t.Errorf("expected level=TRACE, got %v", result["level"])
	}
}

func TestLogger_TextOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithPretty(false))
	logger.Info("test message", slog.String("key", "value"))

	output := buf.String()

	if !strings.Contains(output, "test message") {
		t.Error("message not found in text output")
	}

	if !strings.Contains(output, "key=value") {
		t.Error("key=value not found in text output")
	}
}

func TestLogger_CallerInfo(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON), WithCaller(true))
	logger.Info("test message")

	output := buf.String()

	if !strings.Contains(output, "source") {
		t.Error("caller info not included when enabled")
	}

	if !strings.Contains(output, "log_test.go") {
		t.Errorf("caller should point at the test, got: %s", output)
	}

	buf.Reset()

	logger = Make(&buf, WithFormat(FormatJSON), WithCaller(false))
	logger.Info("test message")

	if strings.Contains(buf.String(), "source") {
		t.Error("caller info included when disabled")
	}
}

func TestLogger_TimeLayout(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithTimeLayout("RFC3339"), WithPretty(false))
	logger.Info("test")

	if !strings.Contains(buf.String(), "T") {
		t.Errorf("expected RFC3339 timestamp, got: %s", buf.String())
	}

	buf.Reset()

	logger = Make(&buf, WithTimeLayout("none"), WithFormat(FormatJSON))
	logger.Info("test")

	var result map[string]any

	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	if _, ok := result["time"]; ok {
		t.Error("timestamp included when layout disables it")
	}
}

func TestLogger_Wrap_OverridesConfiguration(t *testing.T) {
	var base, wrapped bytes.Buffer

	logger := Make(&base, WithLevel(LevelError))

	quiet := logger.Wrap(WithOutput(&wrapped), WithLevel(LevelDebug))
	quiet.Debug("wrapped message")

	if base.Len() > 0 {
		t.Error("original logger received the wrapped message")
	}

	if !strings.Contains(wrapped.String(), "wrapped message") {
		t.Error("wrapped logger dropped the message")
	}

	// The original is unchanged.
	if logger.Level() != LevelError {
		t.Errorf("original level = %v, want %v", logger.Level(), LevelError)
	}
}

func TestLogger_With_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON)).
		With(slog.String("component", "render"))

	logger.Info("attributed")

	var result map[string]any

	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	if result["component"] != "render" {
		t.Errorf("expected component=render, got %v", result["component"])
	}
}

func TestLogger_ConcurrentCalls(t *testing.T) {
	var (
		buf bytes.Buffer
		mu  sync.Mutex
	)

	write := func(f func()) {
		mu.Lock()
		defer mu.Unlock()

		f()
	}

	logger := Make(&buf, WithPretty(false))

	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			write(func() { logger.Info("concurrent message", slog.Int("id", i)) })
		}()
	}

	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 100 {
		t.Errorf("expected 100 log lines, got %d", len(lines))
	}
}

func TestDefault_Config(t *testing.T) {
	var buf bytes.Buffer

	restore := Default()

	Config(WithOutput(&buf), WithLevel(LevelDebug), WithPretty(false))

	defer func() {
		defaultMutex.Lock()
		defaultLogger = restore
		defaultMutex.Unlock()
	}()

	Debug("package level message")

	if !strings.Contains(buf.String(), "package level message") {
		t.Errorf("default logger dropped the message, got: %s", buf.String())
	}
}
