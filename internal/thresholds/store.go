// Package thresholds owns the per-station alert limits: an in-memory store
// shared by every render, and the backends that persist it.
package thresholds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/station-monitor-service/internal/domain"
	"github.com/couchcryptid/station-monitor-service/internal/observability"
)

// Backend reads and writes the full threshold configuration.
type Backend interface {
	Load(ctx context.Context) (domain.ThresholdConfig, error)
	Save(ctx context.Context, cfg domain.ThresholdConfig) error
}

// Store holds the active configuration. Lookups take a read lock and never
// block each other; SetAll and Load take the write lock. Persist holds saveMu
// for the backend write and the read lock only while copying.
type Store struct {
	mu      sync.RWMutex
	saveMu  sync.Mutex
	cfg     domain.ThresholdConfig
	backend Backend
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStore creates a Store seeded with the built-in defaults. Call Load to read
// the persisted configuration.
func NewStore(backend Backend, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		cfg:     domain.DefaultThresholds(),
		backend: backend,
		logger:  logger,
		metrics: metrics,
	}
}

// Load replaces the active configuration with the persisted one, back-filling
// every known station and parameter from the defaults. When the backend fails
// the defaults are used and the failure is logged.
func (s *Store) Load(ctx context.Context) domain.ThresholdConfig {
	loaded, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Warn("threshold config unavailable, using defaults", "error", err)
		loaded = nil
	}
	cfg := s.normalize(loaded)

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	return cfg.Clone()
}

// Get returns the pair for a station parameter, or an unbounded pair when the
// station or parameter has none.
func (s *Store) Get(station domain.StationID, param string) domain.ThresholdPair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pair, ok := s.cfg[station][param]; ok {
		return pair
	}
	return domain.Unbounded()
}

// Station returns a copy of one station's pairs.
func (s *Store) Station(id domain.StationID) (map[string]domain.ThresholdPair, error) {
	if _, err := domain.LookupStation(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.ThresholdPair, len(s.cfg[id]))
	for name, pair := range s.cfg[id] {
		out[name] = pair
	}
	return out, nil
}

// Snapshot returns a deep copy of the active configuration.
func (s *Store) Snapshot() domain.ThresholdConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// SetAll replaces every pair of a station. Parameters absent from mapping
// become unbounded. Nothing changes when the station or a parameter is unknown.
func (s *Store) SetAll(id domain.StationID, mapping map[string]domain.ThresholdPair) error {
	if _, err := domain.LookupStation(id); err != nil {
		return err
	}
	for name := range mapping {
		if !domain.IsParameter(name) {
			return fmt.Errorf("%w: %q", domain.ErrUnknownParameter, name)
		}
	}

	params := make(map[string]domain.ThresholdPair, len(domain.Parameters))
	for _, name := range domain.Parameters {
		if pair, ok := mapping[name]; ok {
			params[name] = pair
		} else {
			params[name] = domain.Unbounded()
		}
	}

	s.mu.Lock()
	s.cfg[id] = params
	s.mu.Unlock()
	return nil
}

// Persist writes the full active configuration to the backend. Saves run one
// at a time; lookups only wait for the snapshot.
func (s *Store) Persist(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.backend.Save(ctx, s.Snapshot()); err != nil {
		s.metrics.ThresholdSaves.WithLabelValues("error").Inc()
		if !errors.Is(err, domain.ErrConfigIO) {
			err = fmt.Errorf("%w: %w", domain.ErrConfigIO, err)
		}
		return fmt.Errorf("persist thresholds: %w", err)
	}
	s.metrics.ThresholdSaves.WithLabelValues("success").Inc()
	return nil
}

// Update replaces a station's pairs and persists the result. The in-memory
// change stays active when persisting fails.
func (s *Store) Update(ctx context.Context, id domain.StationID, mapping map[string]domain.ThresholdPair) error {
	if err := s.SetAll(id, mapping); err != nil {
		return err
	}
	if err := s.Persist(ctx); err != nil {
		s.logger.Error("threshold save failed", "station", id, "error", err)
		return err
	}
	s.logger.Info("thresholds saved", "station", id)
	return nil
}

// normalize drops unknown stations and parameters and fills gaps from the
// defaults.
func (s *Store) normalize(loaded domain.ThresholdConfig) domain.ThresholdConfig {
	cfg := domain.DefaultThresholds()
	for station, params := range loaded {
		if _, ok := cfg[station]; !ok {
			s.logger.Warn("ignoring thresholds of unknown station", "station", station)
			continue
		}
		for name, pair := range params {
			if !domain.IsParameter(name) {
				s.logger.Warn("ignoring threshold of unknown parameter", "station", station, "parameter", name)
				continue
			}
			cfg[station][name] = pair
		}
	}
	return cfg
}
