package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("file stale", "station", "fazenda")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "file stale", entry["msg"])
	assert.Equal(t, "fazenda", entry["station"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("listing directory", "dir", "Porto_Real")

	assert.Contains(t, buf.String(), "listing directory")
	assert.Contains(t, buf.String(), "Porto_Real")
}

func TestNewLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "loud", "json")

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewMetricsForTesting_Unregistered(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(a.Renders))
	require.NoError(t, prometheus.NewRegistry().Register(b.Renders))

	a.Renders.WithLabelValues("fazenda", "ok").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Renders.WithLabelValues("fazenda", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Renders.WithLabelValues("fazenda", "ok")))
}
