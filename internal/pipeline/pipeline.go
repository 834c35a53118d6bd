package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/station-monitor-service/internal/domain"
	"github.com/couchcryptid/station-monitor-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Fetcher retrieves the newest file of a station. It returns an error wrapping
// domain.ErrFetchNotFound when the station has no file.
type Fetcher interface {
	FetchLatest(ctx context.Context, station domain.Station) (domain.RawFile, error)
}

// ThresholdGetter looks up the active pair of a station parameter.
type ThresholdGetter interface {
	Get(station domain.StationID, param string) domain.ThresholdPair
}

// Options tunes a Pipeline. Zero values select the real clock, UTC and no
// fetch timeout.
type Options struct {
	Clock        clockwork.Clock
	Location     *time.Location
	FetchTimeout time.Duration
}

// Pipeline renders one station at a time: fetch, judge freshness, parse and
// classify.
type Pipeline struct {
	fetcher      Fetcher
	thresholds   ThresholdGetter
	clock        clockwork.Clock
	location     *time.Location
	fetchTimeout time.Duration
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// New creates a Pipeline with the given collaborators and observability.
func New(f Fetcher, th ThresholdGetter, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Pipeline{
		fetcher:      f,
		thresholds:   th,
		clock:        opts.Clock,
		location:     opts.Location,
		fetchTimeout: opts.FetchTimeout,
		logger:       logger,
		metrics:      metrics,
	}
}

// Render produces the result for a station. The only error is
// domain.ErrUnknownStation; every other failure is a result status.
func (p *Pipeline) Render(ctx context.Context, id domain.StationID) (domain.StationResult, error) {
	station, err := domain.LookupStation(id)
	if err != nil {
		return domain.StationResult{}, err
	}

	result := p.render(ctx, station)
	p.record(result)
	return result, nil
}

func (p *Pipeline) render(ctx context.Context, station domain.Station) domain.StationResult {
	file, err := p.fetch(ctx, station)
	now := p.clock.Now()
	if err != nil {
		reason := "fetch failed: " + err.Error()
		if errors.Is(err, domain.ErrFetchNotFound) {
			reason = domain.ErrFetchNotFound.Error()
		}
		p.logger.Warn("no data for station", "station", station.ID, "error", err)
		return domain.NoDataResult(station, reason, now)
	}

	ts, err := domain.ParseFileTimestamp(file.Name, p.location)
	if err != nil {
		p.logger.Warn("file timestamp unknown", "station", station.ID, "file", file.Name, "error", err)
	} else {
		p.metrics.FileAge.WithLabelValues(string(station.ID)).Set(now.Sub(ts).Seconds())
	}

	if verdict := domain.Judge(ts, now); verdict != domain.Fresh {
		p.logger.Info("station data not fresh", "station", station.ID, "file", file.Name, "freshness", verdict)
		return domain.StaleResult(station, file.Name, ts, verdict, now)
	}

	reading, err := domain.ParseRecord(string(file.Data), station.ID)
	if err != nil {
		p.logger.Warn("parse failed", "station", station.ID, "file", file.Name, "error", err)
		return domain.ParseErrorResult(station, file.Name, ts, err.Error(), now)
	}

	limit := func(param string) domain.ThresholdPair {
		return p.thresholds.Get(station.ID, param)
	}
	return domain.OKResult(station, file.Name, ts, reading, limit, now)
}

// fetch wraps the external retrieval with the caller-level timeout.
func (p *Pipeline) fetch(ctx context.Context, station domain.Station) (domain.RawFile, error) {
	if p.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
	}

	start := p.clock.Now()
	file, err := p.fetcher.FetchLatest(ctx, station)
	p.metrics.FetchDuration.WithLabelValues(string(station.ID)).Observe(p.clock.Since(start).Seconds())
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues(string(station.ID)).Inc()
	}
	return file, err
}

func (p *Pipeline) record(r domain.StationResult) {
	station := string(r.Station)
	p.metrics.Renders.WithLabelValues(station, string(r.Status)).Inc()
	for _, c := range r.Classifications {
		p.metrics.Classifications.WithLabelValues(station, string(c)).Inc()
	}
}
