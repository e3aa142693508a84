// Package orchestrate drives a detection run end to end: fan out over zones,
// collect forecast metrics, detect candidates, evolve the record set, then
// cross-check and fan out notifications. Detection is parallel per zone;
// evolution happens exactly once per run.
package orchestrate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/stormwatch/internal/alert"
	"github.com/linnemanlabs/stormwatch/internal/crosscheck"
	"github.com/linnemanlabs/stormwatch/internal/detect"
	"github.com/linnemanlabs/stormwatch/internal/forecast"
	"github.com/linnemanlabs/stormwatch/internal/lifecycle"
)

const (
	defaultWorkers     = 4
	defaultZoneTimeout = 10 * time.Second

	// Detection-phase retry budget. Evolution itself is never retried.
	providerAttempts = 3
	providerBackoff  = 400 * time.Millisecond
)

// Checker annotates records with exclusivity verdicts.
type Checker interface {
	Check(ctx context.Context, records []*alert.Record) []crosscheck.Annotation
}

// Notifier delivers best-effort notifications for newly published records.
type Notifier interface {
	NotifyPublished(ctx context.Context, records []*alert.Record) error
}

// EventSink publishes lifecycle transitions downstream.
type EventSink interface {
	PublishResult(ctx context.Context, res *lifecycle.Result, now time.Time) error
}

// Options configures an Orchestrator. Zones, Providers, Detector, Manager and
// Store are required; everything else defaults.
type Options struct {
	Zones     []Zone
	Providers []forecast.Provider
	Detector  *detect.Detector
	Manager   *lifecycle.Manager
	Store     alert.Store

	Checker  Checker
	Notifier Notifier
	Events   EventSink

	Logger  log.Logger
	Metrics *Metrics
	Clock   clockwork.Clock

	Workers     int
	ZoneTimeout time.Duration
}

// Orchestrator owns the run pipeline.
type Orchestrator struct {
	zones     []Zone
	providers []forecast.Provider
	detector  *detect.Detector
	manager   *lifecycle.Manager
	store     alert.Store

	checker  Checker
	notifier Notifier
	events   EventSink

	logger  log.Logger
	metrics *Metrics
	clock   clockwork.Clock

	workers     int
	zoneTimeout time.Duration
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(prometheus.NewRegistry())
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.ZoneTimeout <= 0 {
		opts.ZoneTimeout = defaultZoneTimeout
	}
	return &Orchestrator{
		zones:       opts.Zones,
		providers:   opts.Providers,
		detector:    opts.Detector,
		manager:     opts.Manager,
		store:       opts.Store,
		checker:     opts.Checker,
		notifier:    opts.Notifier,
		events:      opts.Events,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		clock:       opts.Clock,
		workers:     opts.Workers,
		zoneTimeout: opts.ZoneTimeout,
	}
}

// Run executes one full detection run and returns the evolution result. A
// record-load failure inside Evolve fails the run; everything downstream of
// evolution is best-effort.
func (o *Orchestrator) Run(ctx context.Context) (*lifecycle.Result, error) {
	runID := ulid.Make().String()
	start := o.clock.Now()
	L := o.logger.With("run_id", runID)

	L.Info(ctx, "detection run started", "zones", len(o.zones))

	candidates := o.detectAll(ctx, L, runID)

	res, err := o.manager.Evolve(ctx, candidates, runID)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	o.crosscheckPass(ctx, L)
	o.fanout(ctx, L, res)

	o.metrics.RunDuration.Observe(o.clock.Since(start).Seconds())
	L.Info(ctx, "detection run complete",
		"created", len(res.Created), "updated", len(res.Updated), "deleted", len(res.Deleted))
	return res, nil
}

// RunEvery executes runs on a fixed cadence until the context is cancelled.
// Run failures are logged; the loop keeps going.
func (o *Orchestrator) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := o.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := o.Run(ctx); err != nil {
				o.logger.Error(ctx, err, "scheduled run failed")
			}
		}
	}
}

// detectAll fans zones out over a bounded worker pool. Each zone gets its own
// timeout; a zone failing or coming back empty never affects the others. The
// returned batch preserves zone order so runs are deterministic.
func (o *Orchestrator) detectAll(ctx context.Context, L log.Logger, runID string) []alert.Candidate {
	providers := o.retryingProviders(L)

	perZone := make([][]alert.Candidate, len(o.zones))
	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup

	for i := range o.zones {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			zone := o.zones[i]
			zctx, cancel := context.WithTimeout(ctx, o.zoneTimeout)
			defer cancel()

			m := forecast.Merge(zctx, providers, zone.Lat, zone.Lon, L)
			if m == (detect.Metrics{}) {
				o.metrics.ZonesProcessed.WithLabelValues("degraded").Inc()
				L.Warn(ctx, "zone produced no metrics", "zone", zone.Name)
				return
			}

			perZone[i] = o.detector.Detect(m, zone.Site(), runID, o.clock.Now())
			o.metrics.ZonesProcessed.WithLabelValues("ok").Inc()
		}(i)
	}
	wg.Wait()

	var batch []alert.Candidate
	for _, cands := range perZone {
		batch = append(batch, cands...)
	}
	return batch
}

// retryingProviders wraps each forecast provider with the detection-phase
// retry budget.
func (o *Orchestrator) retryingProviders(L log.Logger) []forecast.Provider {
	out := make([]forecast.Provider, len(o.providers))
	for i, p := range o.providers {
		out[i] = &retryingProvider{inner: p, clock: o.clock, metrics: o.metrics, logger: L}
	}
	return out
}

// crosscheckPass annotates the current record set with exclusivity verdicts.
// A store read failure skips the pass; per-record annotate failures are
// logged and skipped.
func (o *Orchestrator) crosscheckPass(ctx context.Context, L log.Logger) {
	if o.checker == nil {
		return
	}

	records, err := o.store.List(ctx)
	if err != nil {
		L.Warn(ctx, "cross-check skipped, record load failed", "error", err)
		return
	}

	for _, ann := range o.checker.Check(ctx, records) {
		o.metrics.CrosscheckTotal.WithLabelValues(string(ann.Status)).Inc()
		if err := o.manager.Annotate(ctx, ann.RecordID, ann.Status, ann.LeadHours); err != nil {
			L.Error(ctx, err, "exclusivity annotation failed", "record_id", ann.RecordID)
		}
	}
}

// fanout delivers lifecycle events and notifications for a finished run.
// Both sinks are best-effort.
func (o *Orchestrator) fanout(ctx context.Context, L log.Logger, res *lifecycle.Result) {
	if o.events != nil {
		if err := o.events.PublishResult(ctx, res, o.clock.Now()); err != nil {
			o.metrics.PublishFailures.Inc()
			L.Error(ctx, err, "lifecycle event publish failed")
		}
	}

	if o.notifier == nil {
		return
	}
	var published []*alert.Record
	for _, r := range append(res.Created, res.Updated...) {
		if r.Workflow == alert.WorkflowPublished {
			published = append(published, r)
		}
	}
	if len(published) == 0 {
		return
	}
	if err := o.notifier.NotifyPublished(ctx, published); err != nil {
		o.metrics.NotifyFailures.Inc()
		L.Error(ctx, err, "publish notification failed")
	}
}

// retryingProvider retries a provider call with exponential backoff.
type retryingProvider struct {
	inner   forecast.Provider
	clock   clockwork.Clock
	metrics *Metrics
	logger  log.Logger
}

func (p *retryingProvider) Name() string { return p.inner.Name() }

func (p *retryingProvider) Forecast(ctx context.Context, lat, lon float64) (detect.Metrics, error) {
	var lastErr error

	for attempt := 0; attempt < providerAttempts; attempt++ {
		if attempt > 0 {
			p.metrics.ProviderRetries.Inc()
			delay := providerBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return detect.Metrics{}, ctx.Err()
			case <-p.clock.After(delay):
			}
		}

		m, err := p.inner.Forecast(ctx, lat, lon)
		if err == nil {
			return m, nil
		}
		lastErr = err
		p.logger.Warn(ctx, "forecast provider attempt failed",
			"provider", p.inner.Name(), "attempt", attempt+1, "error", err)
	}

	return detect.Metrics{}, lastErr
}
