// Package crosscheck compares locally detected alerts against official
// external feeds to decide whether a phenomenon was detected exclusively by
// us or already announced elsewhere. The check is advisory: it annotates
// records and never changes workflow or certainty, and a dead feed is skipped
// rather than surfaced as a run failure.
package crosscheck

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/stormwatch/internal/alert"
)

// ExternalAlert is one active alert published by an official feed.
type ExternalAlert struct {
	Type     alert.Type
	MinLat   float64
	MaxLat   float64
	MinLon   float64
	MaxLon   float64
	IssuedAt time.Time
}

// contains reports whether a point falls inside the alert's bounding box.
func (e *ExternalAlert) contains(lat, lon float64) bool {
	return lat >= e.MinLat && lat <= e.MaxLat && lon >= e.MinLon && lon <= e.MaxLon
}

// Feed is one country's official alert source.
type Feed interface {
	Country() string
	Active(ctx context.Context) ([]ExternalAlert, error)
}

// Annotation is the cross-check verdict for one record.
type Annotation struct {
	RecordID  string
	Status    alert.Exclusivity
	LeadHours float64
}

// Checker runs the exclusivity cross-check over a record set.
type Checker struct {
	feeds   map[string]Feed
	timeout time.Duration
	logger  log.Logger
	clock   clockwork.Clock
}

// NewChecker builds a checker over per-country feeds. timeout bounds each
// feed query independently.
func NewChecker(feeds []Feed, timeout time.Duration, logger log.Logger, clock clockwork.Clock) *Checker {
	if logger == nil {
		logger = log.Nop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	byCountry := make(map[string]Feed, len(feeds))
	for _, f := range feeds {
		byCountry[f.Country()] = f
	}
	return &Checker{feeds: byCountry, timeout: timeout, logger: logger, clock: clock}
}

// Check queries each relevant feed once and returns a verdict per record.
// Records in a country without a feed, or whose feed is unavailable, produce
// no annotation and keep their previous exclusivity status.
func (c *Checker) Check(ctx context.Context, records []*alert.Record) []Annotation {
	byCountry := make(map[string][]*alert.Record)
	for _, r := range records {
		if r.Workflow == alert.WorkflowArchived {
			continue
		}
		byCountry[r.Country] = append(byCountry[r.Country], r)
	}

	var out []Annotation
	for country, group := range byCountry {
		feed, ok := c.feeds[country]
		if !ok {
			continue
		}

		external, err := c.query(ctx, feed)
		if err != nil {
			c.logger.Warn(ctx, "official feed unavailable, skipping cross-check",
				"country", country, "error", err)
			continue
		}

		for _, r := range group {
			out = append(out, c.verdict(r, external))
		}
	}
	return out
}

func (c *Checker) query(ctx context.Context, feed Feed) ([]ExternalAlert, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return feed.Active(ctx)
}

// verdict matches a record against a feed's active alerts by phenomenon type
// and bounding-box containment. A match means the phenomenon was confirmed
// elsewhere; lead hours measure how far ahead of the official issue we were,
// clamped at zero when the official alert came first.
func (c *Checker) verdict(r *alert.Record, external []ExternalAlert) Annotation {
	for i := range external {
		e := &external[i]
		if e.Type != r.Type || !e.contains(r.Lat, r.Lon) {
			continue
		}
		lead := e.IssuedAt.Sub(r.CreatedAt).Hours()
		if lead < 0 {
			lead = 0
		}
		return Annotation{RecordID: r.ID, Status: alert.ExclusivityConfirmedElsewhere, LeadHours: lead}
	}
	return Annotation{RecordID: r.ID, Status: alert.ExclusivityExclusive}
}
