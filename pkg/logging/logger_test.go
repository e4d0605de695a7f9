package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{input: "debug", want: DebugLevel},
		{input: "INFO", want: InfoLevel},
		{input: "", want: InfoLevel},
		{input: "warning", want: WarnLevel},
		{input: "error", want: ErrorLevel},
		{input: "verbose", want: InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStructuredLogger_WritesJSONWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("nursery-api", "test", DebugLevel)
	logger.SetOutput(&buf)

	ctx := WithNurseryID(WithRequestID(context.Background(), "req-42"), 7)
	logger.Warn(ctx, "[SEASON_REGION_FALLBACK] Region not found", Fields{"requested": "atlantis"})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "req-42", entry.RequestID)
	assert.Equal(t, int64(7), entry.NurseryID)
	assert.Equal(t, "atlantis", entry.Fields["requested"])
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("nursery-api", "test", WarnLevel)
	logger.SetOutput(&buf)

	logger.Info(context.Background(), "dropped", nil)
	assert.Zero(t, buf.Len())

	logger.Error(context.Background(), "kept", nil, errors.New("boom"))
	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), `"file":`)
}

func TestContextLogger_MergesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("nursery-api", "test", DebugLevel)
	logger.SetOutput(&buf)

	logger.WithFields(Fields{"component": "refresher", "region": "guanacaste"}).
		Info(context.Background(), "tick", Fields{"region": "central-valley"})

	line := strings.TrimSpace(buf.String())
	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "refresher", entry.Fields["component"])
	assert.Equal(t, "central-valley", entry.Fields["region"])
}

func TestDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	logger.Error(context.Background(), "nothing", nil, errors.New("ignored"))
}
