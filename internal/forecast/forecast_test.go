package forecast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linnemanlabs/stormwatch/internal/detect"
)

type stubProvider struct {
	name    string
	metrics detect.Metrics
	err     error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Forecast(ctx context.Context, lat, lon float64) (detect.Metrics, error) {
	return s.metrics, s.err
}

func TestMerge_PrecedenceFillsMissing(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name:    "primary",
		metrics: detect.Metrics{WindSpeedKmh: detect.F(95)},
	}
	secondary := &stubProvider{
		name: "secondary",
		metrics: detect.Metrics{
			WindSpeedKmh: detect.F(40), // must lose to primary
			RainMm24h:    detect.F(62),
		},
	}

	got := Merge(context.Background(), []Provider{primary, secondary}, 50.85, 4.35, nil)

	require.NotNil(t, got.WindSpeedKmh)
	assert.Equal(t, 95.0, *got.WindSpeedKmh)
	require.NotNil(t, got.RainMm24h)
	assert.Equal(t, 62.0, *got.RainMm24h)
	assert.Nil(t, got.SnowCm24h)
}

func TestMerge_ProviderFailureDegradesCoverage(t *testing.T) {
	t.Parallel()

	broken := &stubProvider{name: "broken", err: errors.New("upstream timeout")}
	working := &stubProvider{
		name:    "working",
		metrics: detect.Metrics{TempMaxC: detect.F(39.5), ThunderstormFlag: true},
	}

	got := Merge(context.Background(), []Provider{broken, working}, 48.86, 2.35, nil)

	require.NotNil(t, got.TempMaxC)
	assert.Equal(t, 39.5, *got.TempMaxC)
	assert.True(t, got.ThunderstormFlag)
}

func TestMerge_NoProviders(t *testing.T) {
	t.Parallel()

	got := Merge(context.Background(), nil, 0, 0, nil)
	assert.Equal(t, detect.Metrics{}, got)
}

func TestOpenMeteo_Forecast(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50.8500", r.URL.Query().Get("latitude"))
		assert.Equal(t, "4.3500", r.URL.Query().Get("longitude"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"daily": {
				"wind_speed_10m_max": [104.5],
				"precipitation_sum": [12.0],
				"snowfall_sum": [0.0],
				"temperature_2m_max": [14.2],
				"temperature_2m_min": [6.1],
				"weather_code": [95]
			},
			"hourly": {
				"surface_pressure": [1001.2, 989.4, 992.0],
				"cape": [800, 1900, 1200],
				"soil_moisture_0_to_1cm": [0.30, 0.42, 0.38]
			}
		}`))
	}))
	defer srv.Close()

	client := NewOpenMeteo(srv.URL, 5*time.Second)
	m, err := client.Forecast(context.Background(), 50.85, 4.35)
	require.NoError(t, err)

	require.NotNil(t, m.WindSpeedKmh)
	assert.Equal(t, 104.5, *m.WindSpeedKmh)
	require.NotNil(t, m.PressureHpa)
	assert.Equal(t, 989.4, *m.PressureHpa, "pressure should be the hourly minimum")
	require.NotNil(t, m.CAPE)
	assert.Equal(t, 1900.0, *m.CAPE, "cape should be the hourly maximum")
	require.NotNil(t, m.SoilSaturationPct)
	assert.InDelta(t, 93.3, *m.SoilSaturationPct, 0.1)
	assert.True(t, m.ThunderstormFlag, "weather code 95 should flag thunderstorms")
}

func TestOpenMeteo_EmptyResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"daily":{},"hourly":{}}`))
	}))
	defer srv.Close()

	client := NewOpenMeteo(srv.URL, 5*time.Second)
	m, err := client.Forecast(context.Background(), 50.85, 4.35)
	require.NoError(t, err)
	assert.Equal(t, detect.Metrics{}, m, "no series should leave every field nil")
}

func TestOpenMeteo_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewOpenMeteo(srv.URL, 5*time.Second)
	_, err := client.Forecast(context.Background(), 50.85, 4.35)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
