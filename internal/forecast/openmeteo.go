package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/linnemanlabs/stormwatch/internal/detect"
)

const defaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteo implements Provider using the Open-Meteo forecast API.
type OpenMeteo struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenMeteo creates an Open-Meteo client. An empty baseURL selects the
// public API endpoint.
func NewOpenMeteo(baseURL string, timeout time.Duration) *OpenMeteo {
	if baseURL == "" {
		baseURL = defaultOpenMeteoURL
	}
	return &OpenMeteo{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name implements Provider.
func (c *OpenMeteo) Name() string { return "open-meteo" }

// Forecast fetches today's metrics for a coordinate.
func (c *OpenMeteo) Forecast(ctx context.Context, lat, lon float64) (detect.Metrics, error) {
	params := url.Values{
		"latitude":  {fmt.Sprintf("%.4f", lat)},
		"longitude": {fmt.Sprintf("%.4f", lon)},
		"daily":     {"wind_speed_10m_max,precipitation_sum,snowfall_sum,temperature_2m_max,temperature_2m_min,weather_code"},
		"hourly":    {"surface_pressure,cape,soil_moisture_0_to_1cm"},
		"wind_speed_unit": {"kmh"},
		"forecast_days":   {"1"},
		"timezone":        {"UTC"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return detect.Metrics{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return detect.Metrics{}, fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return detect.Metrics{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return detect.Metrics{}, fmt.Errorf("decode response: %w", err)
	}

	return payload.toMetrics(), nil
}

// Open-Meteo API response types, trimmed to the fields we read.

type openMeteoResponse struct {
	Daily struct {
		WindSpeedMax     []float64 `json:"wind_speed_10m_max"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		SnowfallSum      []float64 `json:"snowfall_sum"`
		TempMax          []float64 `json:"temperature_2m_max"`
		TempMin          []float64 `json:"temperature_2m_min"`
		WeatherCode      []int     `json:"weather_code"`
	} `json:"daily"`
	Hourly struct {
		SurfacePressure []float64 `json:"surface_pressure"`
		CAPE            []float64 `json:"cape"`
		SoilMoisture    []float64 `json:"soil_moisture_0_to_1cm"`
	} `json:"hourly"`
}

func (p *openMeteoResponse) toMetrics() detect.Metrics {
	var m detect.Metrics

	if v, ok := first(p.Daily.WindSpeedMax); ok {
		m.WindSpeedKmh = detect.F(v)
	}
	if v, ok := first(p.Daily.PrecipitationSum); ok {
		m.RainMm24h = detect.F(v)
	}
	if v, ok := first(p.Daily.SnowfallSum); ok {
		m.SnowCm24h = detect.F(v)
	}
	if v, ok := first(p.Daily.TempMax); ok {
		m.TempMaxC = detect.F(v)
	}
	if v, ok := first(p.Daily.TempMin); ok {
		m.TempMinC = detect.F(v)
	}

	// WMO weather codes 95-99 are thunderstorm conditions.
	if len(p.Daily.WeatherCode) > 0 && p.Daily.WeatherCode[0] >= 95 {
		m.ThunderstormFlag = true
	}

	if v, ok := minOf(p.Hourly.SurfacePressure); ok {
		m.PressureHpa = detect.F(v)
	}
	if v, ok := maxOf(p.Hourly.CAPE); ok {
		m.CAPE = detect.F(v)
	}
	// Soil moisture m3/m3 roughly saturates around 0.45 for most soils.
	if v, ok := maxOf(p.Hourly.SoilMoisture); ok {
		pct := v / 0.45 * 100
		if pct > 100 {
			pct = 100
		}
		m.SoilSaturationPct = detect.F(pct)
	}

	return m
}

func first(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return xs[0], true
}

func minOf(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m, true
}

func maxOf(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m, true
}
