package crosscheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/stormwatch/internal/alert"
)

// CAPFeed reads active alerts from a CAP-style JSON endpoint serving one
// country's official warnings.
type CAPFeed struct {
	country    string
	endpoint   string
	httpClient *http.Client
}

// NewCAPFeed builds a feed client for a single country endpoint.
func NewCAPFeed(country, endpoint string) *CAPFeed {
	return &CAPFeed{
		country:  country,
		endpoint: endpoint,
		// Per-query deadlines come from the checker's context.
		httpClient: &http.Client{},
	}
}

// Country implements Feed.
func (f *CAPFeed) Country() string { return f.country }

// Active implements Feed.
func (f *CAPFeed) Active(ctx context.Context) ([]ExternalAlert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", f.country, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed %s: status %d: %s", f.country, resp.StatusCode, body)
	}

	var payload capResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("feed %s: decode: %w", f.country, err)
	}

	out := make([]ExternalAlert, 0, len(payload.Alerts))
	for _, a := range payload.Alerts {
		typ, ok := eventType(a.Event)
		if !ok {
			continue
		}
		issued, err := time.Parse(time.RFC3339, a.Onset)
		if err != nil {
			continue
		}
		out = append(out, ExternalAlert{
			Type:     typ,
			MinLat:   a.Area.MinLat,
			MaxLat:   a.Area.MaxLat,
			MinLon:   a.Area.MinLon,
			MaxLon:   a.Area.MaxLon,
			IssuedAt: issued,
		})
	}
	return out, nil
}

type capResponse struct {
	Alerts []capAlert `json:"alerts"`
}

type capAlert struct {
	Event string `json:"event"`
	Onset string `json:"onset"`
	Area  struct {
		MinLat float64 `json:"min_lat"`
		MaxLat float64 `json:"max_lat"`
		MinLon float64 `json:"min_lon"`
		MaxLon float64 `json:"max_lon"`
	} `json:"area"`
}

// eventType maps a CAP event label onto our phenomenon taxonomy. Labels vary
// per issuer, so matching is by keyword.
func eventType(event string) (alert.Type, bool) {
	e := strings.ToLower(event)
	switch {
	case strings.Contains(e, "thunder"):
		return alert.TypeThunderstorm, true
	case strings.Contains(e, "storm"):
		return alert.TypeStorm, true
	case strings.Contains(e, "wind"), strings.Contains(e, "gale"):
		return alert.TypeWind, true
	case strings.Contains(e, "flood"):
		return alert.TypeFlood, true
	case strings.Contains(e, "rain"), strings.Contains(e, "precipitation"):
		return alert.TypeRain, true
	case strings.Contains(e, "snow"), strings.Contains(e, "blizzard"):
		return alert.TypeSnow, true
	case strings.Contains(e, "heat"):
		return alert.TypeHeat, true
	case strings.Contains(e, "cold"), strings.Contains(e, "frost"), strings.Contains(e, "freeze"):
		return alert.TypeCold, true
	default:
		return "", false
	}
}
