package orchestrate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/linnemanlabs/stormwatch/internal/alert"
	"github.com/linnemanlabs/stormwatch/internal/detect"
)

// Zone is one geographic unit of detection work. Scope tags whether a zone
// feeds the local or the continental half of the summary split.
type Zone struct {
	Name     string      `json:"name"`
	Country  string      `json:"country"`
	Region   string      `json:"region"`
	Lat      float64     `json:"lat"`
	Lon      float64     `json:"lon"`
	Altitude float64     `json:"altitude"`
	Scope    alert.Scope `json:"scope"`
}

// Site converts a zone into the detection site shape.
func (z Zone) Site() detect.Site {
	return detect.Site{
		Country:  z.Country,
		Region:   z.Region,
		Lat:      z.Lat,
		Lon:      z.Lon,
		Altitude: z.Altitude,
		Scope:    z.Scope,
	}
}

// DefaultZones is the built-in catalog used when no zones file is configured.
func DefaultZones() []Zone {
	return []Zone{
		{Name: "brussels", Country: "BE", Region: "Brussels", Lat: 50.85, Lon: 4.35, Altitude: 56, Scope: alert.ScopeLocal},
		{Name: "liege", Country: "BE", Region: "Liège", Lat: 50.63, Lon: 5.57, Altitude: 66, Scope: alert.ScopeLocal},
		{Name: "antwerp", Country: "BE", Region: "Antwerp", Lat: 51.22, Lon: 4.40, Altitude: 12, Scope: alert.ScopeLocal},
		{Name: "paris", Country: "FR", Region: "Île-de-France", Lat: 48.86, Lon: 2.35, Altitude: 35, Scope: alert.ScopeContinental},
		{Name: "amsterdam", Country: "NL", Region: "North Holland", Lat: 52.37, Lon: 4.90, Altitude: -2, Scope: alert.ScopeContinental},
		{Name: "berlin", Country: "DE", Region: "Berlin", Lat: 52.52, Lon: 13.40, Altitude: 34, Scope: alert.ScopeContinental},
		{Name: "zurich", Country: "CH", Region: "Zürich", Lat: 47.37, Lon: 8.54, Altitude: 408, Scope: alert.ScopeContinental},
		{Name: "madrid", Country: "ES", Region: "Madrid", Lat: 40.42, Lon: -3.70, Altitude: 657, Scope: alert.ScopeContinental},
	}
}

// LoadZones reads a zone catalog from a JSON file.
func LoadZones(path string) ([]Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones file: %w", err)
	}
	var zones []Zone
	if err := json.Unmarshal(data, &zones); err != nil {
		return nil, fmt.Errorf("parse zones file %s: %w", path, err)
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("zones file %s: no zones defined", path)
	}
	for i, z := range zones {
		if z.Name == "" || z.Country == "" {
			return nil, fmt.Errorf("zones file %s: zone %d missing name or country", path, i)
		}
		if z.Scope == "" {
			zones[i].Scope = alert.ScopeLocal
		}
	}
	return zones, nil
}
