package domain

import "time"

// Status tags a StationResult.
type Status string

const (
	StatusNoData     Status = "no_data"
	StatusStale      Status = "stale"
	StatusParseError Status = "parse_error"
	StatusOK         Status = "ok"
)

// Measurement is one classified parameter of an Ok result.
type Measurement struct {
	Parameter      string         `json:"parameter"`
	Group          string         `json:"group"`
	Value          Value          `json:"value"`
	Threshold      ThresholdPair  `json:"threshold"`
	Classification Classification `json:"classification"`
}

// StationResult is the render-ready outcome of one station render. Which
// fields are set depends on Status: NoData carries only Reason; Stale carries
// the file and its (possibly unknown) timestamp; ParseError adds Reason; Ok adds
// readings and classifications.
type StationResult struct {
	Station         StationID                 `json:"station"`
	Name            string                    `json:"name"`
	Status          Status                    `json:"status"`
	Reason          string                    `json:"reason,omitempty"`
	Filename        string                    `json:"filename,omitempty"`
	Timestamp       *time.Time                `json:"timestamp,omitempty"`
	DisplayTime     string                    `json:"display_time,omitempty"`
	Freshness       Freshness                 `json:"freshness,omitempty"`
	Readings        *ParsedReading            `json:"readings,omitempty"`
	Classifications map[string]Classification `json:"classifications,omitempty"`
	Measurements    []Measurement             `json:"measurements,omitempty"`
	AlertCount      int                       `json:"alert_count"`
	RenderedAt      time.Time                 `json:"rendered_at"`
}

// NoDataResult reports that no file could be obtained.
func NoDataResult(s Station, reason string, renderedAt time.Time) StationResult {
	return StationResult{
		Station:    s.ID,
		Name:       s.Name,
		Status:     StatusNoData,
		Reason:     reason,
		RenderedAt: renderedAt,
	}
}

// StaleResult reports a file that is too old, or whose age is unknown.
func StaleResult(s Station, filename string, ts time.Time, verdict Freshness, renderedAt time.Time) StationResult {
	r := fileResult(s, StatusStale, filename, ts, renderedAt)
	r.Freshness = verdict
	return r
}

// ParseErrorResult reports a fresh file whose record could not be parsed.
func ParseErrorResult(s Station, filename string, ts time.Time, reason string, renderedAt time.Time) StationResult {
	r := fileResult(s, StatusParseError, filename, ts, renderedAt)
	r.Freshness = Fresh
	r.Reason = reason
	return r
}

// OKResult classifies every field of reading with the pair returned by limit.
func OKResult(s Station, filename string, ts time.Time, reading ParsedReading, limit func(param string) ThresholdPair, renderedAt time.Time) StationResult {
	r := fileResult(s, StatusOK, filename, ts, renderedAt)
	r.Freshness = Fresh
	r.Readings = &reading
	r.Classifications = make(map[string]Classification, reading.Len())
	r.Measurements = make([]Measurement, 0, reading.Len())

	for _, name := range Parameters {
		v, ok := reading.Value(name)
		if !ok {
			continue
		}
		pair := limit(name)
		c := Classify(v, pair)
		if c == Alert {
			r.AlertCount++
		}
		r.Classifications[name] = c
		r.Measurements = append(r.Measurements, Measurement{
			Parameter:      name,
			Group:          ParameterGroup(name),
			Value:          v,
			Threshold:      pair,
			Classification: c,
		})
	}
	return r
}

func fileResult(s Station, status Status, filename string, ts time.Time, renderedAt time.Time) StationResult {
	r := StationResult{
		Station:    s.ID,
		Name:       s.Name,
		Status:     status,
		Filename:   filename,
		RenderedAt: renderedAt,
	}
	if !ts.IsZero() {
		r.Timestamp = &ts
		r.DisplayTime = ts.Format(DisplayLayout)
	}
	return r
}
