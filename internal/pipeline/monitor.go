package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/station-monitor-service/internal/domain"
	"github.com/couchcryptid/station-monitor-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Renderer renders a single station.
type Renderer interface {
	Render(ctx context.Context, id domain.StationID) (domain.StationResult, error)
}

// ResultSink receives the results of one monitor cycle.
type ResultSink interface {
	Publish(ctx context.Context, results []domain.StationResult) error
}

// Monitor renders every station on a fixed interval. It keeps no results
// between cycles.
type Monitor struct {
	renderer Renderer
	sink     ResultSink
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// NewMonitor creates a Monitor. A nil sink skips publishing; a nil clock uses
// real time.
func NewMonitor(r Renderer, sink ResultSink, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Monitor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Monitor{
		renderer: r,
		sink:     sink,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a monitor cycle has completed, or an error
// describing why the service is not yet ready.
func (m *Monitor) CheckReadiness(_ context.Context) error {
	if !m.ready.Load() {
		return errors.New("monitor has not completed a cycle yet")
	}
	return nil
}

// Ready reports whether a cycle has completed.
func (m *Monitor) Ready() bool {
	return m.ready.Load()
}

// Run executes a cycle immediately and then once per interval until the
// context is cancelled. A non-positive interval runs only the first cycle.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", "interval", m.interval)
	m.metrics.MonitorRunning.Set(1)
	defer m.metrics.MonitorRunning.Set(0)

	m.RunCycle(ctx)

	if m.interval <= 0 {
		<-ctx.Done()
		m.logger.Info("monitor stopping", "reason", ctx.Err())
		return nil
	}

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			m.RunCycle(ctx)
		}
	}
}

// RunCycle renders every known station in order and publishes the batch.
func (m *Monitor) RunCycle(ctx context.Context) []domain.StationResult {
	start := m.clock.Now()
	ids := domain.StationIDs()
	results := make([]domain.StationResult, 0, len(ids))

	for _, id := range ids {
		if ctx.Err() != nil {
			return results
		}
		r, err := m.renderer.Render(ctx, id)
		if err != nil {
			m.logger.Error("render failed", "station", id, "error", err)
			continue
		}
		m.logger.Info("station rendered",
			"station", r.Station,
			"status", r.Status,
			"file", r.Filename,
			"alerts", r.AlertCount,
		)
		results = append(results, r)
	}

	m.publish(ctx, results)
	m.metrics.CycleDuration.Observe(m.clock.Since(start).Seconds())
	m.ready.Store(true)
	return results
}

func (m *Monitor) publish(ctx context.Context, results []domain.StationResult) {
	if m.sink == nil || len(results) == 0 {
		return
	}
	if err := m.sink.Publish(ctx, results); err != nil {
		m.metrics.PublishErrors.Inc()
		m.logger.Error("publish results failed", "error", err, "count", len(results))
		return
	}
	m.metrics.ResultsPublished.Add(float64(len(results)))
}
