package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// newBufferedLogger returns a logger writing into a buffer at the given level
func newBufferedLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New("test-service").WithOutput(&buf).WithLevel(level), &buf
}

func decodeEntry(t *testing.T, output string) LogEntry {
	t.Helper()
	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &entry); err != nil {
		t.Fatalf("Failed to parse log output as JSON: %v (output %q)", err, output)
	}
	return entry
}

func TestNew(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	logger := New("test-service")

	if logger.serviceName != "test-service" {
		t.Errorf("Expected service name 'test-service', got '%s'", logger.serviceName)
	}
	if logger.minLevel != LevelInfo {
		t.Errorf("Expected default level INFO, got %s", logger.minLevel)
	}
	if logger.traceID != "" {
		t.Errorf("Expected empty trace ID, got '%s'", logger.traceID)
	}
}

func TestNewReadsLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	logger := New("test-service")

	if logger.minLevel != LevelDebug {
		t.Errorf("Expected level DEBUG from LOG_LEVEL, got %s", logger.minLevel)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestWithContext(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)
	ctx := ContextWithRequestID(context.Background(), "req-42")

	contextLogger := logger.WithContext(ctx)
	if logger == contextLogger {
		t.Error("Expected new logger instance, got same instance")
	}

	contextLogger.Info("hello")
	entry := decodeEntry(t, buf.String())
	if entry.RequestID != "req-42" {
		t.Errorf("Expected request ID 'req-42', got '%s'", entry.RequestID)
	}
}

func TestWithTraceID(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.WithTraceID("trace-123").Info("traced")

	entry := decodeEntry(t, buf.String())
	if entry.TraceID != "trace-123" {
		t.Errorf("Expected trace ID 'trace-123', got '%s'", entry.TraceID)
	}
	if entry.Service != "test-service" {
		t.Errorf("Expected service 'test-service', got '%s'", entry.Service)
	}
}

func TestInfo(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.Info("Corpus loaded")

	entry := decodeEntry(t, buf.String())
	if entry.Level != LevelInfo {
		t.Errorf("Expected level INFO, got %s", entry.Level)
	}
	if entry.Message != "Corpus loaded" {
		t.Errorf("Expected message 'Corpus loaded', got '%s'", entry.Message)
	}
	if entry.Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
}

func TestInfoWithCount(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.InfoWithCount("Papers in week", 42)

	entry := decodeEntry(t, buf.String())
	if entry.DataCount == nil || *entry.DataCount != 42 {
		t.Errorf("Expected data count 42, got %v", entry.DataCount)
	}
}

func TestInfoWithDuration(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.InfoWithDuration("Extraction finished", 1500*time.Millisecond)

	entry := decodeEntry(t, buf.String())
	if entry.Duration == nil || *entry.Duration != 1500 {
		t.Errorf("Expected duration 1500ms, got %v", entry.Duration)
	}
}

func TestWarn(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.Warn("No papers found for week")

	entry := decodeEntry(t, buf.String())
	if entry.Level != LevelWarn {
		t.Errorf("Expected level WARN, got %s", entry.Level)
	}
}

func TestError(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.Error("Load failed", errors.New("disk full"))

	entry := decodeEntry(t, buf.String())
	if entry.Level != LevelError {
		t.Errorf("Expected level ERROR, got %s", entry.Level)
	}
	if entry.Error == nil {
		t.Fatal("Expected error details to be set")
	}
	if entry.Error.Message != "disk full" {
		t.Errorf("Expected error message 'disk full', got '%s'", entry.Error.Message)
	}
	if entry.Error.Type != "*errors.errorString" {
		t.Errorf("Expected error type '*errors.errorString', got '%s'", entry.Error.Type)
	}
}

func TestErrorWithAppError(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)
	appErr := NewAppErrorWithCode(ErrorTypeInput, "bad week", "INVALID_WEEK_FORMAT", nil)

	logger.Error("Week rejected", appErr)

	entry := decodeEntry(t, buf.String())
	if entry.Error == nil {
		t.Fatal("Expected error details to be set")
	}
	if entry.Error.Type != string(ErrorTypeInput) {
		t.Errorf("Expected error type %s, got %s", ErrorTypeInput, entry.Error.Type)
	}
	if entry.Error.Code != "INVALID_WEEK_FORMAT" {
		t.Errorf("Expected code INVALID_WEEK_FORMAT, got %s", entry.Error.Code)
	}
}

func TestErrorWithNilError(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.Error("no cause", nil)

	entry := decodeEntry(t, buf.String())
	if entry.Error != nil {
		t.Error("Expected error details to be nil when no error provided")
	}
}

func TestDebugRespectsLevel(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)
	logger.Debug("hidden")
	if strings.TrimSpace(buf.String()) != "" {
		t.Error("Expected no debug output at INFO level")
	}

	debugLogger, debugBuf := newBufferedLogger(LevelDebug)
	debugLogger.Debug("shown")
	entry := decodeEntry(t, debugBuf.String())
	if entry.Level != LevelDebug {
		t.Errorf("Expected level DEBUG, got %s", entry.Level)
	}
}

func TestWarnLevelDropsInfo(t *testing.T) {
	logger, buf := newBufferedLogger(LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d", len(lines))
	}
	if entry := decodeEntry(t, lines[0]); entry.Message != "kept" {
		t.Errorf("Expected 'kept', got '%s'", entry.Message)
	}
}

func TestLogWithMetadata(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.Info("Sample written", map[string]interface{}{
		"path":  "samples/2025WK46.csv",
		"count": 3850,
		"full":  true,
	})

	entry := decodeEntry(t, buf.String())
	if entry.Metadata["path"] != "samples/2025WK46.csv" {
		t.Errorf("Expected metadata path, got '%v'", entry.Metadata["path"])
	}
	if entry.Metadata["count"] != float64(3850) {
		t.Errorf("Expected metadata count 3850, got '%v'", entry.Metadata["count"])
	}
	if entry.Metadata["full"] != true {
		t.Errorf("Expected metadata full true, got '%v'", entry.Metadata["full"])
	}
}

func TestGetRequestIDFromContext(t *testing.T) {
	//nolint:staticcheck // nil context is handled explicitly
	if id := getRequestIDFromContext(nil); id != "" {
		t.Errorf("Expected empty request ID for nil context, got '%s'", id)
	}
	if id := getRequestIDFromContext(context.Background()); id != "" {
		t.Errorf("Expected empty request ID for background context, got '%s'", id)
	}
}

func BenchmarkLogInfo(b *testing.B) {
	logger := New("test-service").WithOutput(&bytes.Buffer{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("Benchmark test message")
	}
}
