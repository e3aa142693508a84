// Package forecast defines the point-forecast provider interface and the
// HTTP adapters behind it. Providers fail independently; a provider error
// degrades coverage for its fields only and never aborts a run.
package forecast

import (
	"context"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/stormwatch/internal/detect"
)

// Provider returns point forecast metrics for a coordinate.
type Provider interface {
	Name() string
	Forecast(ctx context.Context, lat, lon float64) (detect.Metrics, error)
}

// Merge queries providers in order and fills each metric field from the
// first provider that supplies it. No weighting or averaging; precedence is
// the registration order. Provider failures are logged and skipped.
func Merge(ctx context.Context, providers []Provider, lat, lon float64, logger log.Logger) detect.Metrics {
	if logger == nil {
		logger = log.Nop()
	}

	var out detect.Metrics
	for _, p := range providers {
		m, err := p.Forecast(ctx, lat, lon)
		if err != nil {
			logger.Warn(ctx, "forecast provider failed, coverage degraded",
				"provider", p.Name(), "lat", lat, "lon", lon, "error", err)
			continue
		}
		fillMissing(&out, m)
	}
	return out
}

func fillMissing(dst *detect.Metrics, src detect.Metrics) {
	if dst.WindSpeedKmh == nil {
		dst.WindSpeedKmh = src.WindSpeedKmh
	}
	if dst.RainMm24h == nil {
		dst.RainMm24h = src.RainMm24h
	}
	if dst.SnowCm24h == nil {
		dst.SnowCm24h = src.SnowCm24h
	}
	if dst.TempMinC == nil {
		dst.TempMinC = src.TempMinC
	}
	if dst.TempMaxC == nil {
		dst.TempMaxC = src.TempMaxC
	}
	if dst.PressureHpa == nil {
		dst.PressureHpa = src.PressureHpa
	}
	if dst.CAPE == nil {
		dst.CAPE = src.CAPE
	}
	if dst.SoilSaturationPct == nil {
		dst.SoilSaturationPct = src.SoilSaturationPct
	}
	if !dst.ThunderstormFlag {
		dst.ThunderstormFlag = src.ThunderstormFlag
	}
}
