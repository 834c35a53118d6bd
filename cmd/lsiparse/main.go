// Command lsiparse renders one local .lsi file the way the monitor renders the
// newest remote file, and prints the result as JSON.
//
// Usage:
//
//	go run ./cmd/lsiparse \
//	  -file data/17_07_2025_14_11..lsi \
//	  -station fazenda \
//	  -thresholds limits/thresholds.json \
//	  -now 2025-07-17T14:20:00-03:00
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/couchcryptid/station-monitor-service/internal/domain"
	"github.com/couchcryptid/station-monitor-service/internal/observability"
	"github.com/couchcryptid/station-monitor-service/internal/pipeline"
	"github.com/couchcryptid/station-monitor-service/internal/thresholds"
	"github.com/jonboulle/clockwork"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// localFile serves one file from disk as the station's newest file.
type localFile struct {
	path string
}

func (l localFile) FetchLatest(_ context.Context, _ domain.Station) (domain.RawFile, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.RawFile{}, err
	}
	return domain.RawFile{Name: filepath.Base(l.path), Data: data}, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lsiparse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "path to the .lsi file")
	station := fs.String("station", "", "station id (coca_cola, fazenda)")
	thresholdFile := fs.String("thresholds", "", "threshold JSON document; defaults when empty")
	nowFlag := fs.String("now", "", "current instant as RFC3339; the file's own timestamp when empty")
	zone := fs.String("tz", "America/Sao_Paulo", "zone of filename timestamps")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *file == "" || *station == "" {
		fs.Usage()
		return 2
	}

	id := domain.StationID(*station)
	if _, err := domain.LookupStation(id); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if _, err := os.Stat(*file); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	loc, err := time.LoadLocation(*zone)
	if err != nil {
		fmt.Fprintf(stderr, "invalid -tz: %v\n", err)
		return 1
	}

	now, err := resolveNow(*nowFlag, *file, loc)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	// Unregistered: nothing scrapes a one-shot run.
	metrics := observability.NewMetricsForTesting()

	var backend thresholds.Backend = noBackend{}
	if *thresholdFile != "" {
		backend = thresholds.NewFileBackend(*thresholdFile)
	}
	store := thresholds.NewStore(backend, logger, metrics)
	store.Load(context.Background())

	p := pipeline.New(localFile{path: *file}, store, logger, metrics, pipeline.Options{
		Clock:    clockwork.NewFakeClockAt(now),
		Location: loc,
	})
	result, err := p.Render(context.Background(), id)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// resolveNow parses -now, falling back to the file's timestamp so an archived
// file renders as fresh.
func resolveNow(flagValue, file string, loc *time.Location) (time.Time, error) {
	if flagValue != "" {
		now, err := time.Parse(time.RFC3339, flagValue)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid -now: %w", err)
		}
		return now, nil
	}
	if ts, err := domain.ParseFileTimestamp(file, loc); err == nil {
		return ts, nil
	}
	return time.Now(), nil
}

// noBackend makes the store use the built-in defaults.
type noBackend struct{}

func (noBackend) Load(context.Context) (domain.ThresholdConfig, error) {
	return domain.DefaultThresholds(), nil
}

func (noBackend) Save(context.Context, domain.ThresholdConfig) error {
	return fmt.Errorf("%w: read-only", domain.ErrConfigIO)
}
