package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Session markers that separate the record preamble from the value payload.
var sessionMarkers = []string{"AM,", "PM,"}

const tokenDelimiter = ","

// Value is one measurement: a number, or an explicit unparseable marker when
// the instrument token could not be converted.
type Value struct {
	Number float64
	Valid  bool
}

// Number returns a valid Value.
func Number(v float64) Value { return Value{Number: v, Valid: true} }

// Unparseable is the marker stored for a token that failed numeric conversion.
var Unparseable = Value{}

// MarshalJSON encodes an unparseable value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Number)
}

// UnmarshalJSON decodes null as Unparseable.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Unparseable
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = Number(n)
	return nil
}

// ParsedReading holds the values of one record keyed by parameter name. It is
// immutable once returned by ParseRecord.
type ParsedReading struct {
	station StationID
	fields  FieldOrder
	values  map[string]Value
}

// Station returns the station the record was parsed for.
func (r ParsedReading) Station() StationID { return r.station }

// Fields returns the parameter names in record order.
func (r ParsedReading) Fields() FieldOrder {
	out := make(FieldOrder, len(r.fields))
	copy(out, r.fields)
	return out
}

// Value returns the value for a parameter and whether the parameter is present.
func (r ParsedReading) Value(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Len returns the number of parameters in the reading.
func (r ParsedReading) Len() int { return len(r.values) }

// MarshalJSON encodes the reading as a name → number|null object.
func (r ParsedReading) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.values)
}

// ParseRecord extracts the station's parameter values from the raw text of an
// .lsi file. It fails with ErrMarkerNotFound or ErrInsufficientFields; a token
// that is not a number becomes Unparseable without failing the record.
func ParseRecord(raw string, id StationID) (ParsedReading, error) {
	station, err := LookupStation(id)
	if err != nil {
		return ParsedReading{}, err
	}

	payload, ok := afterMarker(raw)
	if !ok {
		return ParsedReading{}, ErrMarkerNotFound
	}

	values := valueTokens(payload)
	if len(values) < len(station.Fields) {
		return ParsedReading{}, fmt.Errorf("%w: got %d, want %d", ErrInsufficientFields, len(values), len(station.Fields))
	}

	parsed := make(map[string]Value, len(station.Fields))
	for i, name := range station.Fields {
		parsed[name] = parseValue(values[i])
	}

	return ParsedReading{
		station: station.ID,
		fields:  station.Fields,
		values:  parsed,
	}, nil
}

// afterMarker returns the text following the earliest session marker.
func afterMarker(raw string) (string, bool) {
	best := -1
	var marker string
	for _, m := range sessionMarkers {
		if i := strings.Index(raw, m); i >= 0 && (best < 0 || i < best) {
			best = i
			marker = m
		}
	}
	if best < 0 {
		return "", false
	}
	return raw[best+len(marker):], true
}

// valueTokens splits the payload, drops empty tokens and keeps the even
// positions. Odd positions carry the instrument quality code.
func valueTokens(payload string) []string {
	var tokens []string
	for _, t := range strings.Split(payload, tokenDelimiter) {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}

	values := make([]string, 0, (len(tokens)+1)/2)
	for i := 0; i < len(tokens); i += 2 {
		values = append(values, tokens[i])
	}
	return values
}

// parseValue rejects NaN and infinities, which would otherwise classify as
// Normal or fail to encode.
func parseValue(token string) Value {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Unparseable
	}
	return Number(v)
}
