package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/wonny/maverick/backend/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewWithWriter(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"}, &bytes.Buffer{})
			if logger == nil {
				t.Fatal("Expected logger to be created")
			}

			if logger.Level() != tt.wantLevel {
				t.Errorf("Expected level %v, got %v", tt.wantLevel, logger.Level())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{" Error ", zerolog.ErrorLevel},
		{"trace", zerolog.InfoLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// newBufferLogger JSON 출력을 버퍼로 받는 debug 레벨 로거
func newBufferLogger(buf *bytes.Buffer) *Logger {
	return NewWithWriter(&config.Config{Env: "test", LogLevel: "debug", LogFormat: "json"}, buf)
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}
	return logEntry
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { logger.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { logger.Info("info message") }, "info message", "info"},
		{"warn", func() { logger.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { logger.Error("error message") }, "error message", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			logEntry := decode(t, &buf)
			if logEntry["level"] != tt.wantLevel {
				t.Errorf("Expected level %q, got %q", tt.wantLevel, logEntry["level"])
			}
			if logEntry["message"] != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, logEntry["message"])
			}
			if logEntry["env"] != "test" {
				t.Errorf("Expected env test, got %v", logEntry["env"])
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&config.Config{Env: "test", LogLevel: "warn", LogFormat: "json"}, &buf)

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered at warn level, got %s", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warn output, got %s", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.WithComponent("portfolio").
		WithField("method", "historical").
		WithFields(map[string]interface{}{
			"tickers":   3,
			"var_95":    -0.021,
			"risk_tier": "moderate",
		}).
		Info("analysis completed")

	logEntry := decode(t, &buf)
	if logEntry["component"] != "portfolio" {
		t.Errorf("Expected component portfolio, got %v", logEntry["component"])
	}
	if logEntry["method"] != "historical" {
		t.Errorf("Expected method historical, got %v", logEntry["method"])
	}
	if logEntry["tickers"] != float64(3) {
		t.Errorf("Expected tickers 3, got %v", logEntry["tickers"])
	}
	if logEntry["risk_tier"] != "moderate" {
		t.Errorf("Expected risk_tier moderate, got %v", logEntry["risk_tier"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	testErr := errors.New("benchmark variance is zero")
	logger.WithError(testErr).Error("beta failed")

	logEntry := decode(t, &buf)
	if logEntry["error"] != "benchmark variance is zero" {
		t.Errorf("Expected error field, got %v", logEntry["error"])
	}
	if logEntry["message"] != "beta failed" {
		t.Errorf("Expected message 'beta failed', got %v", logEntry["message"])
	}
}

func TestConsoleFormat(t *testing.T) {
	for _, format := range []string{"console", "pretty"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&config.Config{Env: "test", LogLevel: "info", LogFormat: format}, &buf)
			logger.Info("test message")

			if !strings.Contains(buf.String(), "test message") {
				t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
			}
			if strings.HasPrefix(buf.String(), "{") {
				t.Errorf("Expected console output, got JSON: %s", buf.String())
			}
		})
	}
}

func TestNop(t *testing.T) {
	// panic 없이 모든 호출이 무시되어야 함
	l := OrNop(nil).WithComponent("x").WithField("k", "v")
	l.Info("ignored")
	l.WithError(errors.New("e")).Error("ignored")

	var buf bytes.Buffer
	real := newBufferLogger(&buf)
	if OrNop(real) != real {
		t.Error("Expected OrNop to keep non-nil logger")
	}
}

func TestCorrelationIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.WithRunID("run-1").WithRequestID("req-9").Info("correlated")
	logEntry := decode(t, &buf)
	if logEntry[FieldRunID] != "run-1" {
		t.Errorf("Expected run_id run-1, got %v", logEntry[FieldRunID])
	}
	if logEntry[FieldRequestID] != "req-9" {
		t.Errorf("Expected request_id req-9, got %v", logEntry[FieldRequestID])
	}

	buf.Reset()
	logger.WithRequestID("").Info("no request")
	if _, ok := decode(t, &buf)[FieldRequestID]; ok {
		t.Error("Expected empty request id to be omitted")
	}
}
