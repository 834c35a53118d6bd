package domain

import (
	"encoding/json"
	"math"
)

// ThresholdPair bounds one parameter. A missing bound is unbounded; min and
// max are not ordered, so min > max makes every value an alert.
type ThresholdPair struct {
	Min float64
	Max float64
}

// Unbounded returns a pair that never alerts.
func Unbounded() ThresholdPair {
	return ThresholdPair{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Bounds returns a pair with both limits set.
func Bounds(minVal, maxVal float64) ThresholdPair {
	return ThresholdPair{Min: minVal, Max: maxVal}
}

type thresholdJSON struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// MarshalJSON omits infinite bounds.
func (p ThresholdPair) MarshalJSON() ([]byte, error) {
	var out thresholdJSON
	if !math.IsInf(p.Min, 0) {
		out.Min = &p.Min
	}
	if !math.IsInf(p.Max, 0) {
		out.Max = &p.Max
	}
	return json.Marshal(out)
}

// UnmarshalJSON treats an absent bound as unbounded on that side.
func (p *ThresholdPair) UnmarshalJSON(data []byte) error {
	var in thresholdJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Unbounded()
	if in.Min != nil {
		p.Min = *in.Min
	}
	if in.Max != nil {
		p.Max = *in.Max
	}
	return nil
}

// Classification is the verdict for one value against its pair.
type Classification string

const (
	Normal        Classification = "normal"
	Alert         Classification = "alert"
	Indeterminate Classification = "indeterminate"
)

// Classify compares value against pair. Unparseable values are never Normal.
func Classify(v Value, pair ThresholdPair) Classification {
	if !v.Valid {
		return Indeterminate
	}
	if v.Number < pair.Min || v.Number > pair.Max {
		return Alert
	}
	return Normal
}

// ThresholdConfig maps station → parameter → pair.
type ThresholdConfig map[StationID]map[string]ThresholdPair

// Clone returns a deep copy.
func (c ThresholdConfig) Clone() ThresholdConfig {
	out := make(ThresholdConfig, len(c))
	for station, params := range c {
		cp := make(map[string]ThresholdPair, len(params))
		for name, pair := range params {
			cp[name] = pair
		}
		out[station] = cp
	}
	return out
}

var defaultLimits = map[string]ThresholdPair{
	ParamO3:            Bounds(0, 200),
	ParamCO:            Bounds(0, 50),
	ParamSO2:           Bounds(0, 20),
	ParamNO:            Bounds(0, 10),
	ParamNO2:           Bounds(0, 10),
	ParamNOX:           Bounds(0, 10),
	ParamPM10:          Bounds(0, 150),
	ParamTemperature:   Bounds(-10, 50),
	ParamHumidity:      Bounds(0, 100),
	ParamPressure:      Bounds(900, 1100),
	ParamWindDirection: Bounds(0, 360),
	ParamWindSpeed:     Bounds(0, 50),
	ParamRainfall:      Bounds(0, 500),
}

// DefaultLimit returns the built-in pair for a parameter, or Unbounded.
func DefaultLimit(name string) ThresholdPair {
	if p, ok := defaultLimits[name]; ok {
		return p
	}
	return Unbounded()
}

// DefaultThresholds returns the built-in table for every known station.
func DefaultThresholds() ThresholdConfig {
	cfg := make(ThresholdConfig, len(stations))
	for _, id := range StationIDs() {
		params := make(map[string]ThresholdPair, len(Parameters))
		for _, name := range Parameters {
			params[name] = DefaultLimit(name)
		}
		cfg[id] = params
	}
	return cfg
}
