package domain

import (
	"fmt"
	"sort"
)

// StationID identifies one monitoring station.
type StationID string

const (
	StationFazenda  StationID = "fazenda"
	StationCocaCola StationID = "coca_cola"
)

// FieldCount is the number of measured parameters in every record.
const FieldCount = 13

// Canonical parameter names. These are the display keys used in records,
// threshold configuration and results.
const (
	ParamO3            = "O3"
	ParamCO            = "CO"
	ParamSO2           = "SO2"
	ParamNO            = "NO"
	ParamNO2           = "NO2"
	ParamNOX           = "NOX"
	ParamPM10          = "PM10"
	ParamTemperature   = "Temperatura"
	ParamHumidity      = "Umidade Relativa"
	ParamPressure      = "Pressão Atmosférica"
	ParamWindDirection = "Direção do vento"
	ParamWindSpeed     = "Velocidade do vento"
	ParamRainfall      = "Índice Pluviométrico"
)

// Display groups.
const (
	GroupGases          = "Gases e Partículas"
	GroupMeteorological = "Variáveis Meteorológicas"
)

// Parameters lists the canonical names in display order.
var Parameters = []string{
	ParamO3, ParamCO, ParamSO2, ParamNO, ParamNO2, ParamNOX, ParamPM10,
	ParamTemperature, ParamHumidity, ParamPressure,
	ParamWindDirection, ParamWindSpeed, ParamRainfall,
}

var parameterGroups = map[string]string{
	ParamO3:            GroupGases,
	ParamCO:            GroupGases,
	ParamSO2:           GroupGases,
	ParamNO:            GroupGases,
	ParamNO2:           GroupGases,
	ParamNOX:           GroupGases,
	ParamPM10:          GroupGases,
	ParamTemperature:   GroupMeteorological,
	ParamHumidity:      GroupMeteorological,
	ParamPressure:      GroupMeteorological,
	ParamWindDirection: GroupMeteorological,
	ParamWindSpeed:     GroupMeteorological,
	ParamRainfall:      GroupMeteorological,
}

// FieldOrder maps record positions to parameter names for one station.
type FieldOrder []string

// Station describes a known monitoring location.
type Station struct {
	ID        StationID  `json:"id"`
	Name      string     `json:"name"`
	RemoteDir string     `json:"-"`
	Fields    FieldOrder `json:"field_order"`
}

// The instrument vendor wires the analyzers differently at each site, so the
// positional order is per station. Both orders must be confirmed against the
// vendor's documentation before a new revision is deployed.
var stations = map[StationID]Station{
	StationFazenda: {
		ID:        StationFazenda,
		Name:      "Fazenda",
		RemoteDir: "Bom_Retiro",
		Fields: FieldOrder{
			ParamNO, ParamNO2, ParamNOX,
			ParamCO, ParamSO2, ParamO3,
			ParamTemperature, ParamHumidity, ParamPressure,
			ParamPM10, ParamWindDirection, ParamWindSpeed, ParamRainfall,
		},
	},
	StationCocaCola: {
		ID:        StationCocaCola,
		Name:      "Coca Cola",
		RemoteDir: "Porto_Real",
		Fields: FieldOrder{
			ParamSO2, ParamO3, ParamCO,
			ParamWindSpeed, ParamWindDirection,
			ParamRainfall, ParamPressure,
			ParamPM10, ParamTemperature, ParamHumidity,
			ParamNO, ParamNO2, ParamNOX,
		},
	},
}

// LookupStation returns the registry entry for id.
func LookupStation(id StationID) (Station, error) {
	s, ok := stations[id]
	if !ok {
		return Station{}, fmt.Errorf("%w: %q", ErrUnknownStation, id)
	}
	return s, nil
}

// Stations returns every known station sorted by id.
func Stations() []Station {
	out := make([]Station, 0, len(stations))
	for _, s := range stations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StationIDs returns every known station id sorted.
func StationIDs() []StationID {
	all := Stations()
	ids := make([]StationID, len(all))
	for i, s := range all {
		ids[i] = s.ID
	}
	return ids
}

// IsParameter reports whether name is one of the canonical parameters.
func IsParameter(name string) bool {
	_, ok := parameterGroups[name]
	return ok
}

// ParameterGroup returns the display group of a canonical parameter, or "".
func ParameterGroup(name string) string {
	return parameterGroups[name]
}

// ValidateStations checks every field order holds exactly FieldCount unique
// canonical names. Hosts call it once at startup.
func ValidateStations() error {
	for _, s := range Stations() {
		if err := s.Fields.validate(); err != nil {
			return fmt.Errorf("station %s: %w", s.ID, err)
		}
	}
	return nil
}

func (f FieldOrder) validate() error {
	if len(f) != FieldCount {
		return fmt.Errorf("field order has %d names, want %d", len(f), FieldCount)
	}
	seen := make(map[string]bool, len(f))
	for _, name := range f {
		if !IsParameter(name) {
			return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate parameter %q", name)
		}
		seen[name] = true
	}
	return nil
}
