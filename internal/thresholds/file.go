package thresholds

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/station-monitor-service/internal/domain"
)

// FileBackend stores the configuration as one indented JSON document.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend for the JSON document at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads and decodes the document. A missing file is an error wrapping
// both domain.ErrConfigIO and fs.ErrNotExist.
func (b *FileBackend) Load(_ context.Context) (domain.ThresholdConfig, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigIO, err)
	}

	var cfg domain.ThresholdConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrConfigIO, b.path, err)
	}
	return cfg, nil
}

// Save encodes cfg with sorted keys and replaces the document atomically.
func (b *FileBackend) Save(_ context.Context, cfg domain.ThresholdConfig) error {
	data, err := encodeConfig(cfg)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", domain.ErrConfigIO, err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", domain.ErrConfigIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".thresholds-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfigIO, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("%w: write: %w", domain.ErrConfigIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", domain.ErrConfigIO, err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("%w: rename: %w", domain.ErrConfigIO, err)
	}
	return nil
}

func encodeConfig(cfg domain.ThresholdConfig) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
