package lifecycle

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/stormwatch/internal/alert"
)

const (
	// maxMissedRuns is the consecutive-miss budget. A record is hard-deleted
	// the instant its missed-run counter would reach this value.
	maxMissedRuns = 3

	// holdHysteresis is how far past a band boundary blended certainty must
	// land before a manual workflow hold is released.
	holdHysteresis = 5
)

// Result is the outcome of one evolution pass.
type Result struct {
	RunID   string          `json:"run_id"`
	Created []*alert.Record `json:"created"`
	Updated []*alert.Record `json:"updated"`
	Deleted []*alert.Record `json:"deleted"`

	// Skipped counts items abandoned mid-pass because a store write failed.
	Skipped int `json:"skipped,omitempty"`
}

// Manager is the single writer for alert records. One evolution pass runs at
// a time; admin overrides and annotations share the same lock so a pass
// always observes a consistent record set.
type Manager struct {
	store   alert.Store
	logger  log.Logger
	metrics *Metrics
	clock   clockwork.Clock

	mu sync.Mutex
}

// NewManager creates a lifecycle manager.
func NewManager(store alert.Store, logger log.Logger, metrics *Metrics, clock clockwork.Clock) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		store:   store,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
	}
}

// Evolve executes one evolution pass for runID over the candidate batch.
// A failure to load the record set aborts the pass; a failure to persist a
// single item is logged, the item is skipped, and the pass continues.
func (m *Manager) Evolve(ctx context.Context, candidates []alert.Candidate, runID string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := m.clock.Now()
	L := m.logger.With("run_id", runID)

	existing, err := m.store.List(ctx)
	if err != nil {
		m.metrics.RunsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("evolve %s: load records: %w", runID, err)
	}

	m.metrics.CandidatesPerRun.Observe(float64(len(candidates)))

	res := &Result{RunID: runID}

	// working is the matchable population: loaded records plus anything
	// created during this pass, so duplicate candidates in one batch
	// collapse onto a single record.
	working := existing

	for i := range candidates {
		c := &candidates[i]
		if matched := alert.Match(c, working); matched != nil {
			m.refresh(ctx, L, res, matched, c, runID)
			continue
		}
		if created := m.create(ctx, L, res, c, runID); created != nil {
			working = append(working, created)
		}
	}

	m.decay(ctx, L, res, existing, runID)

	m.metrics.RunsTotal.WithLabelValues("ok").Inc()
	m.metrics.EvolveDuration.Observe(m.clock.Since(start).Seconds())
	m.metrics.ActiveRecords.Set(float64(len(working) - len(res.Deleted)))

	L.Info(ctx, "evolution pass complete",
		"candidates", len(candidates),
		"created", len(res.Created),
		"updated", len(res.Updated),
		"deleted", len(res.Deleted),
		"skipped", res.Skipped,
	)

	return res, nil
}

// refresh blends a matched candidate into its record and persists the
// update. The in-memory record is only touched after the store accepts the
// write, so a failed item still looks unrefreshed to the decay step.
func (m *Manager) refresh(ctx context.Context, L log.Logger, res *Result, r *alert.Record, c *alert.Candidate, runID string) {
	now := m.clock.Now()

	up := r.Clone()
	newCert := alert.ClampCertainty(int(math.Round(float64(up.Certainty+c.Confidence) / 2)))

	switch {
	case newCert > up.Certainty:
		up.Trend = alert.TrendRising
	case newCert < up.Certainty:
		up.Trend = alert.TrendFalling
	default:
		up.Trend = alert.TrendStable
	}

	if up.ManualHold && holdReleased(up.ManualCertainty, newCert) {
		up.ManualHold = false
		up.ManualCertainty = 0
	}
	if !up.ManualHold {
		up.Workflow = alert.Classify(newCert)
	}

	up.Certainty = newCert
	up.Severity = alert.DeriveSeverity(up.Type, newCert)
	up.History = append(up.History, alert.HistoryEntry{RunID: runID, Confidence: newCert, Timestamp: now})
	up.MissedRunCount = 0
	up.RunCount++
	up.LastRunID = runID
	up.UpdatedAt = now

	if err := m.store.Update(ctx, up); err != nil {
		L.Error(ctx, err, "record update failed, skipping", "record_id", up.ID)
		m.metrics.ItemsSkipped.WithLabelValues("update").Inc()
		res.Skipped++
		return
	}

	*r = *up

	m.metrics.RecordsUpdated.Inc()
	res.Updated = append(res.Updated, up.Clone())
}

// create persists a brand-new record for an unmatched candidate. Candidates
// below the keep floor are dropped rather than created already-archived.
func (m *Manager) create(ctx context.Context, L log.Logger, res *Result, c *alert.Candidate, runID string) *alert.Record {
	if alert.Classify(c.Confidence) == alert.WorkflowArchived {
		L.Info(ctx, "candidate below keep floor, dropped",
			"type", string(c.Type), "confidence", c.Confidence, "country", c.Country)
		return nil
	}

	now := m.clock.Now()
	r := &alert.Record{
		ID:          ulid.Make().String(),
		Type:        c.Type,
		Description: describe(c),
		Country:     c.Country,
		Region:      c.Region,
		Lat:         c.Lat,
		Lon:         c.Lon,
		Altitude:    c.Altitude,
		Scope:       c.Scope,
		Severity:    alert.DeriveSeverity(c.Type, c.Confidence),
		Certainty:   alert.ClampCertainty(c.Confidence),
		Workflow:    alert.Classify(c.Confidence),
		Trend:       alert.TrendRising,
		Exclusivity: alert.ExclusivityUnknown,
		RunCount:    1,
		LastRunID:   runID,
		History:     []alert.HistoryEntry{{RunID: runID, Confidence: c.Confidence, Timestamp: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.store.Create(ctx, r); err != nil {
		L.Error(ctx, err, "record create failed, skipping",
			"type", string(c.Type), "country", c.Country)
		m.metrics.ItemsSkipped.WithLabelValues("create").Inc()
		res.Skipped++
		return nil
	}

	m.metrics.RecordsCreated.Inc()
	res.Created = append(res.Created, r.Clone())
	return r
}

// decay handles every loaded record the pass did not refresh: bump the
// missed-run counter, park the record under surveillance, and hard-delete
// once the miss budget is exhausted.
func (m *Manager) decay(ctx context.Context, L log.Logger, res *Result, existing []*alert.Record, runID string) {
	now := m.clock.Now()

	for _, r := range existing {
		if r.LastRunID == runID {
			continue
		}

		r.MissedRunCount++

		if r.MissedRunCount >= maxMissedRuns {
			if err := m.store.Delete(ctx, r.ID); err != nil {
				L.Error(ctx, err, "record delete failed, skipping", "record_id", r.ID)
				m.metrics.ItemsSkipped.WithLabelValues("delete").Inc()
				res.Skipped++
				continue
			}
			m.metrics.RecordsDeleted.Inc()
			res.Deleted = append(res.Deleted, r.Clone())
			L.Info(ctx, "record deleted after repeated misses",
				"record_id", r.ID, "type", string(r.Type), "country", r.Country)
			continue
		}

		r.Workflow = alert.WorkflowUnderSurveillance
		r.UpdatedAt = now
		if err := m.store.Update(ctx, r); err != nil {
			L.Error(ctx, err, "record decay update failed, skipping", "record_id", r.ID)
			m.metrics.ItemsSkipped.WithLabelValues("update").Inc()
			res.Skipped++
			continue
		}
		m.metrics.RecordsDecayed.Inc()
	}
}

// holdReleased reports whether blended certainty has moved far enough out of
// the band it was in when the admin override was set. Crossing a boundary by
// holdHysteresis points or less keeps the hold.
func holdReleased(manualCert, newCert int) bool {
	if alert.Classify(manualCert) == alert.Classify(newCert) {
		return false
	}
	var dist int
	if newCert > manualCert {
		dist = newCert - bandFloor(newCert)
	} else {
		dist = bandFloor(manualCert) - newCert
	}
	return dist > holdHysteresis
}

// bandFloor is the lower certainty boundary of the classification band.
func bandFloor(certainty int) int {
	switch {
	case certainty >= 90:
		return 90
	case certainty >= 70:
		return 70
	case certainty >= 50:
		return 50
	default:
		return 0
	}
}

func describe(c *alert.Candidate) string {
	label := string(c.Type)
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	loc := c.Country
	if c.Region != "" {
		loc = c.Region + ", " + c.Country
	}
	if c.Magnitude == "" {
		return fmt.Sprintf("%s alert (%s)", label, loc)
	}
	return fmt.Sprintf("%s alert: %s (%s)", label, c.Magnitude, loc)
}
