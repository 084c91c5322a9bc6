package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelInfo)

	testLogger.Debug("debug message")
	testLogger.Info("info message", "key1", "value1", "number", 42)
	testLogger.Warn("warning message")
	testLogger.Error("error message", fmt.Errorf("boom"), ErrorCodeKey, ErrorNumerical)

	if buffer.Len() == 0 {
		t.Fatal("Expected log output, got empty string")
	}
	if testLogger.ContainsMessage("debug message") {
		t.Error("Debug message should be filtered at Info level")
	}
	for _, msg := range []string{"info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}
	if !testLogger.ContainsField("number", 42.0) {
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrAttrKey, "boom") {
		t.Error("leading error should be stored under the error key")
	}
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(ModelNameKey, "Sequential", ComponentKey, "nn")
	contextLogger.Info("epoch finished", EpochKey, 1, LossKey, 0.25)

	if !testLogger.ContainsField(ModelNameKey, "Sequential") {
		t.Error("Model name context not found")
	}
	if !testLogger.ContainsField(EpochKey, 1.0) {
		t.Error("Epoch field not found")
	}
	if testLogger.CountMessages("epoch finished") != 1 {
		t.Error("expected exactly one epoch record")
	}

	testLogger.Clear()
	if testLogger.ContainsMessage("epoch finished") {
		t.Error("Clear should drop captured records")
	}
}

func TestTestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelWarn)
	ctx := context.Background()

	if testLogger.Enabled(ctx, LevelInfo) {
		t.Error("Info should be disabled at Warn level")
	}
	if !testLogger.Enabled(ctx, LevelError) {
		t.Error("Error should be enabled at Warn level")
	}
}

func TestZerologLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo, false)

	logger.Debug("hidden")
	logger.With(ComponentKey, "tensor").Info("compared", SpeedupKey, 12.5)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["message"] != "compared" || entry[ComponentKey] != "tensor" || entry[SpeedupKey] != 12.5 {
		t.Errorf("unexpected entry: %v", entry)
	}
	if !logger.Enabled(context.Background(), LevelWarn) || logger.Enabled(context.Background(), LevelDebug) {
		t.Error("Enabled does not follow the configured level")
	}
}

func TestZerologLoggerError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug, false)

	err := errors.NewDimensionError("Predict", 784, 100, 1)
	logger.Error("prediction failed", err, "batch", 3)

	out := buf.String()
	if !strings.Contains(out, `"error":"denseflow: Predict: dimension mismatch`) {
		t.Errorf("error text missing: %s", out)
	}
	if !strings.Contains(out, `"type":"DimensionError"`) {
		t.Errorf("structured detail missing: %s", out)
	}
	if !strings.Contains(out, `"batch":3`) {
		t.Errorf("trailing field missing: %s", out)
	}
}

func TestSetLoggerRoutesWarnings(t *testing.T) {
	previous := GetLogger()
	defer SetLogger(previous)

	var buf bytes.Buffer
	SetLogger(NewZerologLogger(&buf, LevelDebug, false))
	errors.Warn(errors.NewConvergenceWarning("Sequential", 2, "time limit"))

	if !strings.Contains(buf.String(), `"type":"ConvergenceWarning"`) {
		t.Errorf("warning not routed to zerolog: %s", buf.String())
	}

	logger, _ := NewTestLogger(LevelDebug)
	SetLogger(logger)
	errors.Warn(errors.NewDataConversionWarning("uint8", "float64", "rescale"))
	if !logger.ContainsMessage("data converted from uint8 to float64") {
		t.Error("warning not routed to non-zerolog logger")
	}
}

func TestParseLevelAndSetup(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || (!tt.wantErr && got != tt.want) {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}

	previous := GetLogger()
	defer SetLogger(previous)
	if err := Setup("info", "xml"); err == nil {
		t.Error("unknown format should fail")
	}
	if err := Setup("debug", "json"); err != nil {
		t.Errorf("Setup json: %v", err)
	}
	if GetLoggerWithName("nn") == nil {
		t.Error("GetLoggerWithName returned nil")
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "WARN" || Level(99).String() != "UNKNOWN" {
		t.Error("unexpected level names")
	}
}

func TestSlogLoggerStacktraces(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, LevelDebug)

	cause := errors.NewValueError("Fit", "bad input")
	logger.Error("fit failed", cause, "retry", errors.NewValueError("Retry", "gave up"), EpochKey, 3)

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["message"] != "fit failed" || record["severity"] != "ERROR" {
		t.Errorf("record = %v", record)
	}
	for _, key := range []string{ErrAttrKey, StacktraceAttrKey, "retry." + StacktraceAttrKey} {
		if _, ok := record[key]; !ok {
			t.Errorf("missing %q in %v", key, record)
		}
	}
	if record[EpochKey] != 3.0 {
		t.Errorf("%s = %v", EpochKey, record[EpochKey])
	}
}
