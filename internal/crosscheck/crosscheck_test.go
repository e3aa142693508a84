package crosscheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linnemanlabs/stormwatch/internal/alert"
)

type stubFeed struct {
	country string
	alerts  []ExternalAlert
	err     error
	calls   int
}

func (f *stubFeed) Country() string { return f.country }

func (f *stubFeed) Active(ctx context.Context) ([]ExternalAlert, error) {
	f.calls++
	return f.alerts, f.err
}

func record(id, country string, typ alert.Type, lat, lon float64, created time.Time) *alert.Record {
	return &alert.Record{
		ID:        id,
		Type:      typ,
		Country:   country,
		Lat:       lat,
		Lon:       lon,
		Workflow:  alert.WorkflowPublished,
		CreatedAt: created,
	}
}

func TestCheck_ConfirmedElsewhereWithLead(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	feed := &stubFeed{
		country: "BE",
		alerts: []ExternalAlert{{
			Type:   alert.TypeWind,
			MinLat: 49.5, MaxLat: 51.5, MinLon: 2.5, MaxLon: 6.5,
			IssuedAt: created.Add(4 * time.Hour),
		}},
	}
	c := NewChecker([]Feed{feed}, time.Second, nil, clockwork.NewFakeClock())

	got := c.Check(context.Background(), []*alert.Record{
		record("r1", "BE", alert.TypeWind, 50.85, 4.35, created),
	})

	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RecordID)
	assert.Equal(t, alert.ExclusivityConfirmedElsewhere, got[0].Status)
	assert.InDelta(t, 4.0, got[0].LeadHours, 0.001)
}

func TestCheck_ExclusiveWhenNoMatch(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	feed := &stubFeed{
		country: "BE",
		alerts: []ExternalAlert{
			// right type, wrong area
			{Type: alert.TypeWind, MinLat: 40, MaxLat: 42, MinLon: 2, MaxLon: 4, IssuedAt: created},
			// right area, wrong type
			{Type: alert.TypeRain, MinLat: 49, MaxLat: 52, MinLon: 2, MaxLon: 7, IssuedAt: created},
		},
	}
	c := NewChecker([]Feed{feed}, time.Second, nil, clockwork.NewFakeClock())

	got := c.Check(context.Background(), []*alert.Record{
		record("r1", "BE", alert.TypeWind, 50.85, 4.35, created),
	})

	require.Len(t, got, 1)
	assert.Equal(t, alert.ExclusivityExclusive, got[0].Status)
	assert.Zero(t, got[0].LeadHours)
}

func TestCheck_LeadClampedAtZero(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	feed := &stubFeed{
		country: "BE",
		alerts: []ExternalAlert{{
			Type:   alert.TypeWind,
			MinLat: 49, MaxLat: 52, MinLon: 2, MaxLon: 7,
			IssuedAt: created.Add(-3 * time.Hour), // official alert came first
		}},
	}
	c := NewChecker([]Feed{feed}, time.Second, nil, clockwork.NewFakeClock())

	got := c.Check(context.Background(), []*alert.Record{
		record("r1", "BE", alert.TypeWind, 50.85, 4.35, created),
	})

	require.Len(t, got, 1)
	assert.Equal(t, alert.ExclusivityConfirmedElsewhere, got[0].Status)
	assert.Zero(t, got[0].LeadHours)
}

func TestCheck_SkipsOnFeedFailureAndMissingFeed(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	broken := &stubFeed{country: "FR", err: errors.New("connection refused")}
	c := NewChecker([]Feed{broken}, time.Second, nil, clockwork.NewFakeClock())

	got := c.Check(context.Background(), []*alert.Record{
		record("r1", "FR", alert.TypeWind, 48.86, 2.35, created), // feed fails
		record("r2", "DE", alert.TypeRain, 52.52, 13.40, created), // no feed
	})

	assert.Empty(t, got, "unavailable feeds must produce no annotations")
	assert.Equal(t, 1, broken.calls)
}

func TestCheck_OneFeedQueryPerCountry(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	feed := &stubFeed{country: "BE"}
	c := NewChecker([]Feed{feed}, time.Second, nil, clockwork.NewFakeClock())

	c.Check(context.Background(), []*alert.Record{
		record("r1", "BE", alert.TypeWind, 50.85, 4.35, created),
		record("r2", "BE", alert.TypeRain, 50.63, 5.57, created),
		record("r3", "BE", alert.TypeSnow, 51.22, 4.40, created),
	})

	assert.Equal(t, 1, feed.calls)
}

func TestCheck_ArchivedRecordsIgnored(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{country: "BE"}
	c := NewChecker([]Feed{feed}, time.Second, nil, clockwork.NewFakeClock())

	r := record("r1", "BE", alert.TypeWind, 50.85, 4.35, time.Now())
	r.Workflow = alert.WorkflowArchived

	got := c.Check(context.Background(), []*alert.Record{r})
	assert.Empty(t, got)
	assert.Zero(t, feed.calls)
}

func TestCAPFeed_Active(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"alerts": [
				{
					"event": "Severe Gale Warning",
					"onset": "2026-03-01T09:00:00Z",
					"area": {"min_lat": 49.5, "max_lat": 51.5, "min_lon": 2.5, "max_lon": 6.5}
				},
				{
					"event": "Pollen Advisory",
					"onset": "2026-03-01T09:00:00Z",
					"area": {"min_lat": 49.5, "max_lat": 51.5, "min_lon": 2.5, "max_lon": 6.5}
				},
				{
					"event": "Flash Flood Warning",
					"onset": "not-a-timestamp",
					"area": {"min_lat": 49.5, "max_lat": 51.5, "min_lon": 2.5, "max_lon": 6.5}
				}
			]
		}`))
	}))
	defer srv.Close()

	feed := NewCAPFeed("BE", srv.URL)
	got, err := feed.Active(context.Background())
	require.NoError(t, err)

	// Unknown events and unparseable timestamps are dropped.
	require.Len(t, got, 1)
	assert.Equal(t, alert.TypeWind, got[0].Type)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), got[0].IssuedAt)
	assert.Equal(t, 51.5, got[0].MaxLat)
}

func TestCAPFeed_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	feed := NewCAPFeed("BE", srv.URL)
	_, err := feed.Active(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestEventType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		event string
		want  alert.Type
		ok    bool
	}{
		{"Thunderstorm Watch", alert.TypeThunderstorm, true},
		{"Winter Storm Warning", alert.TypeStorm, true},
		{"High Wind Warning", alert.TypeWind, true},
		{"Coastal Flood Advisory", alert.TypeFlood, true},
		{"Heavy Rain", alert.TypeRain, true},
		{"Blizzard Warning", alert.TypeSnow, true},
		{"Excessive Heat Warning", alert.TypeHeat, true},
		{"Hard Freeze Warning", alert.TypeCold, true},
		{"Dense Fog Advisory", "", false},
	}
	for _, tc := range cases {
		got, ok := eventType(tc.event)
		assert.Equal(t, tc.ok, ok, tc.event)
		if ok {
			assert.Equal(t, tc.want, got, tc.event)
		}
	}
}
