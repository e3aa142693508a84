// Package detect turns point forecast metrics into alert candidates. Scoring
// strategies are registered explicitly and validated at startup; detection
// itself is pure and does no I/O.
package detect

import (
	"time"

	"github.com/linnemanlabs/stormwatch/internal/alert"
)

// autoThreshold is the confidence at which a candidate is tagged AUTO.
// Informational only; workflow is always computed from certainty.
const autoThreshold = 90

// Metrics is one point forecast for a (lat, lon) at a moment in time, as
// supplied by the forecast collaborators. Nil fields mean the metric was not
// available; a missing metric is treated as "threshold not exceeded".
type Metrics struct {
	WindSpeedKmh      *float64 `json:"wind_speed_kmh,omitempty"`
	RainMm24h         *float64 `json:"rain_mm_24h,omitempty"`
	SnowCm24h         *float64 `json:"snow_cm_24h,omitempty"`
	TempMinC          *float64 `json:"temp_min_c,omitempty"`
	TempMaxC          *float64 `json:"temp_max_c,omitempty"`
	PressureHpa       *float64 `json:"pressure_hpa,omitempty"`
	CAPE              *float64 `json:"cape,omitempty"`
	SoilSaturationPct *float64 `json:"soil_saturation_pct,omitempty"`
	ThunderstormFlag  bool     `json:"thunderstorm_flag,omitempty"`
}

// Site is the geographic point a metrics sample describes.
type Site struct {
	Country  string
	Region   string
	Lat      float64
	Lon      float64
	Altitude float64
	Scope    alert.Scope
}

// Score is a scorer's verdict for one phenomenon.
type Score struct {
	Confidence int
	Magnitude  string
}

// Scorer evaluates one phenomenon against a metrics sample. The boolean
// reports whether the trigger condition fired at all.
type Scorer interface {
	Type() alert.Type
	Score(m Metrics) (Score, bool)
}

// Detector applies every registered scorer to a metrics sample.
type Detector struct {
	registry *Registry
}

// New creates a Detector over a validated scorer registry.
func New(registry *Registry) *Detector {
	return &Detector{registry: registry}
}

// Detect runs all scorers against one sample and returns the candidates
// whose triggers fired. Deterministic: candidates come out in registry
// order. now stamps DetectedAt so callers control the clock.
func (d *Detector) Detect(m Metrics, site Site, runID string, now time.Time) []alert.Candidate {
	var out []alert.Candidate

	for _, sc := range d.registry.Scorers() {
		score, fired := sc.Score(m)
		if !fired {
			continue
		}

		action := alert.ActionManual
		if score.Confidence >= autoThreshold {
			action = alert.ActionAuto
		}

		out = append(out, alert.Candidate{
			Type:       sc.Type(),
			Confidence: alert.ClampCertainty(score.Confidence),
			Magnitude:  score.Magnitude,
			Country:    site.Country,
			Region:     site.Region,
			Lat:        site.Lat,
			Lon:        site.Lon,
			Altitude:   site.Altitude,
			Scope:      site.Scope,
			Action:     action,
			RunID:      runID,
			DetectedAt: now,
		})
	}

	return out
}
