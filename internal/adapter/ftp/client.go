// Package ftp retrieves the newest station file from the logger's FTP server.
package ftp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/station-monitor-service/internal/config"
	"github.com/couchcryptid/station-monitor-service/internal/domain"
	"github.com/jlaffaye/ftp"
)

const fileSuffix = ".lsi"

// conn is the subset of *ftp.ServerConn the client uses.
type conn interface {
	Login(user, password string) error
	ChangeDir(path string) error
	NameList(path string) ([]string, error)
	GetTime(path string) (time.Time, error)
	Retr(path string) (io.ReadCloser, error)
	Quit() error
}

type dialFunc func(ctx context.Context, addr string, timeout time.Duration) (conn, error)

// Client fetches files over FTP. It implements pipeline.Fetcher and opens one
// connection per fetch.
type Client struct {
	addr     string
	user     string
	password string
	timeout  time.Duration
	dial     dialFunc
	logger   *slog.Logger
}

// NewClient creates a Client for the configured FTP server.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		addr:     cfg.FTPAddr(),
		user:     cfg.FTPUser,
		password: cfg.FTPPassword,
		timeout:  cfg.FTPTimeout,
		dial:     dialServer,
		logger:   logger,
	}
}

// FetchLatest retrieves the newest .lsi file in the station's remote
// directory. Newest is the greatest modification time (MDTM); files whose time
// cannot be read are skipped, and when no time can be read the lexically last
// name is used. An empty directory wraps domain.ErrFetchNotFound.
func (c *Client) FetchLatest(ctx context.Context, station domain.Station) (domain.RawFile, error) {
	cn, err := c.dial(ctx, c.addr, c.timeout)
	if err != nil {
		return domain.RawFile{}, fmt.Errorf("ftp dial %s: %w", c.addr, err)
	}
	defer cn.Quit() //nolint:errcheck // connection is discarded either way

	// Closing the connection unblocks any in-flight command.
	stop := context.AfterFunc(ctx, func() { _ = cn.Quit() })
	defer stop()

	if err := cn.Login(c.user, c.password); err != nil {
		return domain.RawFile{}, fmt.Errorf("ftp login: %w", err)
	}
	if err := cn.ChangeDir(station.RemoteDir); err != nil {
		return domain.RawFile{}, fmt.Errorf("ftp cwd %s: %w", station.RemoteDir, err)
	}

	names, err := cn.NameList("")
	if err != nil {
		return domain.RawFile{}, fmt.Errorf("ftp list %s: %w", station.RemoteDir, err)
	}

	latest, ok := c.pickLatest(cn, station, names)
	if !ok {
		return domain.RawFile{}, fmt.Errorf("%s: %w", station.RemoteDir, domain.ErrFetchNotFound)
	}

	data, err := retrieve(cn, latest)
	if err != nil {
		return domain.RawFile{}, fmt.Errorf("ftp retr %s/%s: %w", station.RemoteDir, latest, err)
	}

	c.logger.Debug("fetched latest file", "station", station.ID, "file", latest, "bytes", len(data))
	return domain.RawFile{Name: latest, Data: data}, nil
}

func (c *Client) pickLatest(cn conn, station domain.Station, names []string) (string, bool) {
	var candidates []string
	for _, n := range names {
		base := path.Base(n)
		if strings.HasSuffix(strings.ToLower(base), fileSuffix) {
			candidates = append(candidates, base)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sortByFilename(candidates)

	var (
		latest   string
		latestAt time.Time
	)
	for _, name := range candidates {
		at, err := cn.GetTime(name)
		if err != nil {
			c.logger.Debug("mdtm failed, skipping", "station", station.ID, "file", name, "error", err)
			continue
		}
		// Ties go to the lexically later name.
		if latest == "" || !at.Before(latestAt) {
			latest, latestAt = name, at
		}
	}
	// Without any MDTM the newest filename timestamp wins.
	if latest == "" {
		return candidates[len(candidates)-1], true
	}
	return latest, true
}

// sortByFilename orders names by their filename timestamp, then by name.
// Names without a timestamp sort first.
func sortByFilename(names []string) {
	stamps := make(map[string]time.Time, len(names))
	for _, n := range names {
		if ts, err := domain.ParseFileTimestamp(n, time.UTC); err == nil {
			stamps[n] = ts
		}
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := stamps[names[i]], stamps[names[j]]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return names[i] < names[j]
	})
}

func retrieve(cn conn, name string) ([]byte, error) {
	r, err := cn.Retr(name)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if closeErr := r.Close(); err == nil {
		err = closeErr
	}
	return data, err
}

// serverConn adapts *ftp.ServerConn to conn.
type serverConn struct {
	*ftp.ServerConn
}

func (s serverConn) Retr(path string) (io.ReadCloser, error) {
	return s.ServerConn.Retr(path)
}

func dialServer(ctx context.Context, addr string, timeout time.Duration) (conn, error) {
	sc, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(timeout),
	)
	if err != nil {
		return nil, err
	}
	return serverConn{sc}, nil
}
