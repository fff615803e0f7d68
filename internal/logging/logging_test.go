package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "JSON format to stdout",
			config: Config{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name:   "Console format to stderr",
			config: Config{Level: "debug", Format: "console", Output: "stderr"},
		},
		{
			name:   "Invalid log level defaults to info",
			config: Config{Level: "invalid", Format: "json", Output: "stdout"},
		},
		{
			name:    "Unwritable file",
			config:  Config{Level: "info", Format: "json", Output: "/nonexistent/dir/edl.log"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["message"])
	assert.Equal(t, "warn", entries[0]["level"])
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "json").
		WithSessionID("sess-1").
		WithJobID("job-1").
		WithField("attempt", 2)

	logger.Info("ingesting")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "sess-1", entries[0]["session_id"])
	assert.Equal(t, "job-1", entries[0]["job_id"])
	assert.Equal(t, float64(2), entries[0]["attempt"])
}

func TestLogParseResult(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	session, err := edl.Parse("SESSION NAME:\tDemo\n")
	require.NoError(t, err)

	logger.LogParseResult("sess-1", session, 5*time.Millisecond, nil)
	logger.LogParseResult("sess-2", nil, time.Millisecond, errors.New("bad marker"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "EDL parsed", entries[0]["message"])
	assert.Equal(t, "Demo", entries[0]["session_name"])
	assert.Equal(t, "25", entries[0]["frame_rate"])
	assert.Equal(t, "error", entries[1]["level"])
	assert.Equal(t, "bad marker", entries[1]["error"])
}

func TestLogParseWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	logger.LogParseWarning("sess-1", edl.Warning{Section: edl.SectionMarkers, Line: 12, Message: "bad timecode"})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "markers", entries[0]["section"])
	assert.Equal(t, float64(12), entries[0]["line"])
}

func TestNopLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithSessionID("x").Info("discarded")
	})
}
