package detect

import (
	"fmt"
	"math"

	"github.com/linnemanlabs/stormwatch/internal/alert"
)

// softConfidence is the confidence assigned exactly at a rule's soft bound.
// Confidence ramps linearly from here to 100 at the hard bound.
const softConfidence = 60

// interpolate maps value onto [softConfidence, 100] between the soft and
// hard bounds. The same formula handles descending scales (cold) because the
// fraction is signed on both axes.
func interpolate(value, soft, hard float64) int {
	frac := (value - soft) / (hard - soft)
	c := softConfidence + frac*(100-softConfidence)
	return alert.ClampCertainty(int(math.Round(c)))
}

// WindScorer triggers above 80 km/h, saturating at 120 km/h.
type WindScorer struct{}

func (WindScorer) Type() alert.Type { return alert.TypeWind }

func (WindScorer) Score(m Metrics) (Score, bool) {
	if m.WindSpeedKmh == nil || *m.WindSpeedKmh <= 80 {
		return Score{}, false
	}
	return Score{
		Confidence: interpolate(*m.WindSpeedKmh, 80, 120),
		Magnitude:  fmt.Sprintf("%.0f km/h", *m.WindSpeedKmh),
	}, true
}

// RainScorer triggers above 50 mm over 24h, saturating at 100 mm.
type RainScorer struct{}

func (RainScorer) Type() alert.Type { return alert.TypeRain }

func (RainScorer) Score(m Metrics) (Score, bool) {
	if m.RainMm24h == nil || *m.RainMm24h <= 50 {
		return Score{}, false
	}
	return Score{
		Confidence: interpolate(*m.RainMm24h, 50, 100),
		Magnitude:  fmt.Sprintf("%.0f mm/24h", *m.RainMm24h),
	}, true
}

// SnowScorer triggers above 20 cm over 24h, saturating at 50 cm.
type SnowScorer struct{}

func (SnowScorer) Type() alert.Type { return alert.TypeSnow }

func (SnowScorer) Score(m Metrics) (Score, bool) {
	if m.SnowCm24h == nil || *m.SnowCm24h <= 20 {
		return Score{}, false
	}
	return Score{
		Confidence: interpolate(*m.SnowCm24h, 20, 50),
		Magnitude:  fmt.Sprintf("%.0f cm/24h", *m.SnowCm24h),
	}, true
}

// HeatScorer triggers above 38°C daytime maximum, saturating at 42°C.
type HeatScorer struct{}

func (HeatScorer) Type() alert.Type { return alert.TypeHeat }

func (HeatScorer) Score(m Metrics) (Score, bool) {
	if m.TempMaxC == nil || *m.TempMaxC <= 38 {
		return Score{}, false
	}
	return Score{
		Confidence: interpolate(*m.TempMaxC, 38, 42),
		Magnitude:  fmt.Sprintf("%.0f °C", *m.TempMaxC),
	}, true
}

// ColdScorer triggers below -15°C nighttime minimum, saturating at -25°C.
type ColdScorer struct{}

func (ColdScorer) Type() alert.Type { return alert.TypeCold }

func (ColdScorer) Score(m Metrics) (Score, bool) {
	if m.TempMinC == nil || *m.TempMinC >= -15 {
		return Score{}, false
	}
	return Score{
		Confidence: interpolate(*m.TempMinC, -15, -25),
		Magnitude:  fmt.Sprintf("%.0f °C", *m.TempMinC),
	}, true
}

// StormScorer is a compound rule: violent wind plus a deep depression.
// Fixed confidence, no interpolation.
type StormScorer struct{}

func (StormScorer) Type() alert.Type { return alert.TypeStorm }

func (StormScorer) Score(m Metrics) (Score, bool) {
	if m.WindSpeedKmh == nil || m.PressureHpa == nil {
		return Score{}, false
	}
	if *m.WindSpeedKmh <= 120 || *m.PressureHpa >= 980 {
		return Score{}, false
	}
	return Score{
		Confidence: 97,
		Magnitude:  fmt.Sprintf("%.0f km/h @ %.0f hPa", *m.WindSpeedKmh, *m.PressureHpa),
	}, true
}

// ThunderstormScorer triggers on an explicit convective flag or CAPE above
// 1500 J/kg, interpolating CAPE up to 2500. A flag without usable CAPE gets
// the soft-bound confidence.
type ThunderstormScorer struct{}

func (ThunderstormScorer) Type() alert.Type { return alert.TypeThunderstorm }

func (ThunderstormScorer) Score(m Metrics) (Score, bool) {
	capeFired := m.CAPE != nil && *m.CAPE > 1500
	if !m.ThunderstormFlag && !capeFired {
		return Score{}, false
	}
	if capeFired {
		return Score{
			Confidence: interpolate(*m.CAPE, 1500, 2500),
			Magnitude:  fmt.Sprintf("CAPE %.0f J/kg", *m.CAPE),
		}, true
	}
	return Score{Confidence: softConfidence, Magnitude: "convective cells"}, true
}

// FloodScorer is a compound rule: heavy rain onto saturated soil.
// Fixed confidence, no interpolation.
type FloodScorer struct{}

func (FloodScorer) Type() alert.Type { return alert.TypeFlood }

func (FloodScorer) Score(m Metrics) (Score, bool) {
	if m.RainMm24h == nil || m.SoilSaturationPct == nil {
		return Score{}, false
	}
	if *m.RainMm24h <= 80 || *m.SoilSaturationPct <= 90 {
		return Score{}, false
	}
	return Score{
		Confidence: 92,
		Magnitude:  fmt.Sprintf("%.0f mm/24h on %.0f%% saturated soil", *m.RainMm24h, *m.SoilSaturationPct),
	}, true
}

// F is a convenience for building optional metric fields.
func F(v float64) *float64 { return &v }
