package domain

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"time"
)

// StaleAfter is the maximum age of a file whose readings may be displayed.
const StaleAfter = 30 * time.Minute

// DisplayLayout formats a file timestamp for operators.
const DisplayLayout = "02/01/2006 15:04"

// DD_MM_YYYY_HH_MM at the start of the base name; anything after is ignored.
var fileTimestampRe = regexp.MustCompile(`^(\d{2})_(\d{2})_(\d{4})_(\d{2})_(\d{2})`)

// ParseFileTimestamp derives the record instant from a filename in loc. A nil
// loc means UTC. Out-of-range components fail rather than normalize.
func ParseFileTimestamp(name string, loc *time.Location) (time.Time, error) {
	m := fileTimestampRe.FindStringSubmatch(path.Base(name))
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampUnparseable, name)
	}

	parts := make([]int, 5)
	for i := range parts {
		parts[i], _ = strconv.Atoi(m[i+1])
	}
	day, month, year, hour, minute := parts[0], parts[1], parts[2], parts[3], parts[4]

	if month < 1 || month > 12 || day < 1 || day > daysIn(year, month) || hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: %q out of range", ErrTimestampUnparseable, name)
	}

	if loc == nil {
		loc = time.UTC
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc), nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Freshness is the verdict on a file's age.
type Freshness string

const (
	Fresh   Freshness = "fresh"
	Stale   Freshness = "stale"
	Unknown Freshness = "unknown"
)

// Judge returns Fresh when now - ts is at most StaleAfter and Stale when it is
// greater. A zero ts is Unknown. Timestamps ahead of now are Fresh.
func Judge(ts, now time.Time) Freshness {
	if ts.IsZero() {
		return Unknown
	}
	if now.Sub(ts) <= StaleAfter {
		return Fresh
	}
	return Stale
}
