package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/station-monitor-service/internal/config"
	"github.com/couchcryptid/station-monitor-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 7, 17, 17, 20, 0, 0, time.UTC)
	result := domain.StationResult{
		Station:    domain.StationFazenda,
		Name:       "Fazenda",
		Status:     domain.StatusStale,
		Filename:   "17_07_2025_14_11..lsi",
		Freshness:  domain.Stale,
		RenderedAt: now,
	}

	msg, err := serializeToMessage(result)
	require.NoError(t, err)

	assert.Equal(t, []byte("fazenda"), msg.Key)
	assert.Contains(t, string(msg.Value), `"status":"stale"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "status", msg.Headers[0].Key)
	assert.Equal(t, []byte("stale"), msg.Headers[0].Value)
	assert.Equal(t, "rendered_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.StationResult
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, result.Filename, decoded.Filename)
	assert.Equal(t, domain.Stale, decoded.Freshness)
}

func TestPublish_EmptyBatchIsNoop(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaResultTopic: "station-results"}, slog.Default())
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Publish(context.Background(), nil))
}
