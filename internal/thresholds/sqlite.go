package thresholds

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/station-monitor-service/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS thresholds (
  station   TEXT NOT NULL,
  parameter TEXT NOT NULL,
  min_value REAL,
  max_value REAL,
  PRIMARY KEY (station, parameter)
);
`

// SQLiteBackend stores one row per station parameter. A NULL bound is
// unbounded.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db schema: %w", err)
	}
	return db, nil
}

// NewSQLiteBackend wraps an open database that has the thresholds schema.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

// Load reads every row. An empty table yields an empty configuration.
func (b *SQLiteBackend) Load(ctx context.Context) (domain.ThresholdConfig, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT station, parameter, min_value, max_value FROM thresholds ORDER BY station, parameter`)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", domain.ErrConfigIO, err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	cfg := make(domain.ThresholdConfig)
	for rows.Next() {
		var (
			station, param string
			lo, hi         sql.NullFloat64
		)
		if err := rows.Scan(&station, &param, &lo, &hi); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", domain.ErrConfigIO, err)
		}

		pair := domain.Unbounded()
		if lo.Valid {
			pair.Min = lo.Float64
		}
		if hi.Valid {
			pair.Max = hi.Float64
		}

		id := domain.StationID(station)
		if cfg[id] == nil {
			cfg[id] = make(map[string]domain.ThresholdPair)
		}
		cfg[id][param] = pair
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", domain.ErrConfigIO, err)
	}
	return cfg, nil
}

// Save replaces every row in one transaction.
func (b *SQLiteBackend) Save(ctx context.Context, cfg domain.ThresholdConfig) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrConfigIO, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM thresholds`); err != nil {
		return fmt.Errorf("%w: clear: %w", domain.ErrConfigIO, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO thresholds (station, parameter, min_value, max_value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %w", domain.ErrConfigIO, err)
	}
	defer stmt.Close() //nolint:errcheck // closed with the transaction

	for station, params := range cfg {
		for param, pair := range params {
			if _, err := stmt.ExecContext(ctx, string(station), param, bound(pair.Min), bound(pair.Max)); err != nil {
				return fmt.Errorf("%w: insert %s/%s: %w", domain.ErrConfigIO, station, param, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrConfigIO, err)
	}
	return nil
}

func bound(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func buildDSN(path string) (string, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
