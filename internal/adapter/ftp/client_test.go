package ftp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/station-monitor-service/internal/config"
	"github.com/couchcryptid/station-monitor-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type fakeConn struct {
	loginErr error
	cwdErr   error
	listErr  error
	names    []string
	times    map[string]time.Time
	files    map[string]string

	user    string
	dir     string
	retr    []string
	quitted int
}

func (f *fakeConn) Login(user, _ string) error {
	f.user = user
	return f.loginErr
}

func (f *fakeConn) ChangeDir(p string) error {
	f.dir = p
	return f.cwdErr
}

func (f *fakeConn) NameList(_ string) ([]string, error) {
	return f.names, f.listErr
}

func (f *fakeConn) GetTime(p string) (time.Time, error) {
	t, ok := f.times[p]
	if !ok {
		return time.Time{}, errors.New("550 MDTM not supported")
	}
	return t, nil
}

func (f *fakeConn) Retr(p string) (io.ReadCloser, error) {
	f.retr = append(f.retr, p)
	body, ok := f.files[p]
	if !ok {
		return nil, errors.New("550 file unavailable")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeConn) Quit() error {
	f.quitted++
	return nil
}

func newTestClient(fc *fakeConn) *Client {
	cfg := &config.Config{FTPHost: "ftp.test", FTPPort: 21, FTPUser: "estacao", FTPTimeout: time.Second}
	c := NewClient(cfg, slog.Default())
	c.dial = func(context.Context, string, time.Duration) (conn, error) { return fc, nil }
	return c
}

func mustStation(t *testing.T, id domain.StationID) domain.Station {
	t.Helper()
	s, err := domain.LookupStation(id)
	require.NoError(t, err)
	return s
}

var base = time.Date(2025, 7, 17, 14, 0, 0, 0, time.UTC)

// --- tests ---

func TestFetchLatest_NewestByModificationTime(t *testing.T) {
	fc := &fakeConn{
		names: []string{"17_07_2025_14_11..lsi", "17_07_2025_14_01..lsi", "readme.txt"},
		times: map[string]time.Time{
			"17_07_2025_14_11..lsi": base,
			"17_07_2025_14_01..lsi": base.Add(time.Hour),
			"readme.txt":            base.Add(2 * time.Hour),
		},
		files: map[string]string{"17_07_2025_14_01..lsi": "AM,1,0"},
	}
	c := newTestClient(fc)

	f, err := c.FetchLatest(context.Background(), mustStation(t, domain.StationFazenda))
	require.NoError(t, err)

	assert.Equal(t, "17_07_2025_14_01..lsi", f.Name)
	assert.Equal(t, []byte("AM,1,0"), f.Data)
	assert.Equal(t, "Bom_Retiro", fc.dir)
	assert.Equal(t, "estacao", fc.user)
	assert.Positive(t, fc.quitted)
}

func TestFetchLatest_SkipsFilesWithoutTime(t *testing.T) {
	fc := &fakeConn{
		names: []string{"b.lsi", "c.lsi", "a.lsi"},
		times: map[string]time.Time{"a.lsi": base},
		files: map[string]string{"a.lsi": "data"},
	}

	f, err := newTestClient(fc).FetchLatest(context.Background(), mustStation(t, domain.StationCocaCola))
	require.NoError(t, err)

	assert.Equal(t, "a.lsi", f.Name)
	assert.Equal(t, "Porto_Real", fc.dir)
}

func TestFetchLatest_FallsBackToLexicalOrder(t *testing.T) {
	fc := &fakeConn{
		names: []string{"17_07_2025_14_11..lsi", "17_07_2025_14_21..lsi", "16_07_2025_23_51..lsi"},
		files: map[string]string{"17_07_2025_14_21..lsi": "data"},
	}

	f, err := newTestClient(fc).FetchLatest(context.Background(), mustStation(t, domain.StationFazenda))
	require.NoError(t, err)

	assert.Equal(t, "17_07_2025_14_21..lsi", f.Name)
}

func TestFetchLatest_FallbackOrdersByFilenameTimestamp(t *testing.T) {
	fc := &fakeConn{
		names: []string{"01_08_2025_00_01..lsi", "31_07_2025_23_51..lsi", "zz_backup.lsi"},
		files: map[string]string{"01_08_2025_00_01..lsi": "data"},
	}

	f, err := newTestClient(fc).FetchLatest(context.Background(), mustStation(t, domain.StationFazenda))
	require.NoError(t, err)

	assert.Equal(t, "01_08_2025_00_01..lsi", f.Name)
}

func TestFetchLatest_TieGoesToLaterName(t *testing.T) {
	fc := &fakeConn{
		names: []string{"b.lsi", "a.lsi"},
		times: map[string]time.Time{"a.lsi": base, "b.lsi": base},
		files: map[string]string{"b.lsi": "data"},
	}

	f, err := newTestClient(fc).FetchLatest(context.Background(), mustStation(t, domain.StationFazenda))
	require.NoError(t, err)
	assert.Equal(t, "b.lsi", f.Name)
}

func TestFetchLatest_StripsDirectoryFromListing(t *testing.T) {
	fc := &fakeConn{
		names: []string{"Bom_Retiro/x.LSI"},
		times: map[string]time.Time{"x.LSI": base},
		files: map[string]string{"x.LSI": "data"},
	}

	f, err := newTestClient(fc).FetchLatest(context.Background(), mustStation(t, domain.StationFazenda))
	require.NoError(t, err)
	assert.Equal(t, "x.LSI", f.Name)
	assert.Equal(t, []string{"x.LSI"}, fc.retr)
}

func TestFetchLatest_EmptyDirectory(t *testing.T) {
	for _, names := range [][]string{nil, {"notes.txt"}} {
		fc := &fakeConn{names: names}

		_, err := newTestClient(fc).FetchLatest(context.Background(), mustStation(t, domain.StationFazenda))

		assert.ErrorIs(t, err, domain.ErrFetchNotFound)
		assert.Empty(t, fc.retr)
	}
}

func TestFetchLatest_Errors(t *testing.T) {
	tests := []struct {
		name string
		conn *fakeConn
		want string
	}{
		{"login", &fakeConn{loginErr: errors.New("530 login incorrect")}, "ftp login"},
		{"cwd", &fakeConn{cwdErr: errors.New("550 no such directory")}, "ftp cwd Bom_Retiro"},
		{"list", &fakeConn{listErr: errors.New("425 cannot open data connection")}, "ftp list"},
		{"retr", &fakeConn{names: []string{"a.lsi"}}, "ftp retr Bom_Retiro/a.lsi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(tt.conn).FetchLatest(context.Background(), mustStation(t, domain.StationFazenda))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.NotErrorIs(t, err, domain.ErrFetchNotFound)
		})
	}
}

func TestFetchLatest_DialError(t *testing.T) {
	c := newTestClient(nil)
	c.dial = func(context.Context, string, time.Duration) (conn, error) {
		return nil, errors.New("connection refused")
	}

	_, err := c.FetchLatest(context.Background(), mustStation(t, domain.StationFazenda))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp dial ftp.test:21")
}
