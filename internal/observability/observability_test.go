package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level        string
		debugEnabled bool
		warnEnabled  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
		{"nonsense", false, true},
	}

	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			logger := NewLogger("text", tc.level)
			assert.Equal(t, tc.debugEnabled, logger.Enabled(context.Background(), slog.LevelDebug))
			assert.Equal(t, tc.warnEnabled, logger.Enabled(context.Background(), slog.LevelWarn))
		})
	}
}

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(&buf, "json", "info")
	logger.Info("run finished", "rows", 42)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run finished", entry["msg"])
	assert.EqualValues(t, 42, entry["rows"])
}

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()

	m.RowsIngested.Add(744)
	m.NullTimestamps.Add(3)
	m.EventsDetected.WithLabelValues("heat").Inc()
	m.EventsDetected.WithLabelValues("cold").Add(2)
	m.StageDuration.WithLabelValues("ingest").Observe(0.25)

	assert.InDelta(t, 744, testutil.ToFloat64(m.RowsIngested), 1e-9)
	assert.InDelta(t, 3, testutil.ToFloat64(m.NullTimestamps), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsDetected.WithLabelValues("heat")), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(m.EventsDetected.WithLabelValues("cold")), 1e-9)

	// Two instances never share state.
	other := NewMetricsForTesting()
	assert.InDelta(t, 0, testutil.ToFloat64(other.RowsIngested), 1e-9)
}

func TestPushToGatewayBlankURL(t *testing.T) {
	assert.NoError(t, PushToGateway(context.Background(), ""))
}
