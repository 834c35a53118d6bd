package thresholds

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/station-monitor-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "db", "thresholds.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close db: %v", closeErr)
		}
	})
	return NewSQLiteBackend(db)
}

func TestSQLiteBackend_EmptyTable(t *testing.T) {
	b := setupTestBackend(t)

	cfg, err := b.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, cfg)
}

func TestSQLiteBackend_SaveLoad(t *testing.T) {
	b := setupTestBackend(t)
	ctx := context.Background()

	cfg := domain.ThresholdConfig{
		domain.StationFazenda: {
			domain.ParamTemperature: domain.Bounds(-10, 50),
			domain.ParamPressure:    domain.Unbounded(),
		},
		domain.StationCocaCola: {
			domain.ParamNO2: {Min: 0, Max: domain.Unbounded().Max},
		},
	}
	require.NoError(t, b.Save(ctx, cfg))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSQLiteBackend_SaveReplacesAll(t *testing.T) {
	b := setupTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, domain.DefaultThresholds()))
	small := domain.ThresholdConfig{
		domain.StationFazenda: {domain.ParamO3: domain.Bounds(1, 2)},
	}
	require.NoError(t, b.Save(ctx, small))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, small, loaded)
}

func TestSQLiteBackend_CanceledContext(t *testing.T) {
	b := setupTestBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Save(ctx, domain.DefaultThresholds())

	assert.ErrorIs(t, err, domain.ErrConfigIO)
}
