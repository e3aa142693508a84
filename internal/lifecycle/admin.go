package lifecycle

import (
	"context"
	"fmt"

	"github.com/linnemanlabs/stormwatch/internal/alert"
)

// Admin actions an operator can take on a record.
const (
	ActionApprove = "approve"
	ActionIgnore  = "ignore"
)

// SetWorkflow applies a manual admin override: approve publishes the record,
// ignore archives it. The override sets a sticky hold that evolution
// respects until blended certainty leaves the current band by more than the
// hysteresis margin. Returns the updated record; ok is false when the ID is
// unknown.
func (m *Manager) SetWorkflow(ctx context.Context, id, action string) (*alert.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("set workflow %s: %w", id, err)
	}
	if !ok {
		return nil, false, nil
	}

	switch action {
	case ActionApprove:
		r.Workflow = alert.WorkflowPublished
	case ActionIgnore:
		r.Workflow = alert.WorkflowArchived
	default:
		return nil, false, fmt.Errorf("set workflow %s: unknown action %q", id, action)
	}

	r.ManualHold = true
	r.ManualCertainty = r.Certainty
	r.UpdatedAt = m.clock.Now()

	if err := m.store.Update(ctx, r); err != nil {
		return nil, false, fmt.Errorf("set workflow %s: %w", id, err)
	}

	m.metrics.ManualOverrides.WithLabelValues(action).Inc()
	m.logger.Info(ctx, "manual workflow override",
		"record_id", id, "action", action, "workflow", string(r.Workflow))

	return r, true, nil
}

// Export stamps a record with export metadata. No workflow effect.
func (m *Manager) Export(ctx context.Context, id string, targets []string) (*alert.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("export %s: %w", id, err)
	}
	if !ok {
		return nil, false, nil
	}

	now := m.clock.Now()
	r.ExportedAt = now
	for _, t := range targets {
		if !contains(r.ExportTargets, t) {
			r.ExportTargets = append(r.ExportTargets, t)
		}
	}
	r.UpdatedAt = now

	if err := m.store.Update(ctx, r); err != nil {
		return nil, false, fmt.Errorf("export %s: %w", id, err)
	}

	return r, true, nil
}

// Annotate records an exclusivity cross-check outcome. It never touches
// workflow or certainty.
func (m *Manager) Annotate(ctx context.Context, id string, status alert.Exclusivity, leadHours float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("annotate %s: %w", id, err)
	}
	if !ok {
		return nil
	}

	r.Exclusivity = status
	if status == alert.ExclusivityConfirmedElsewhere {
		r.ExternalLeadHours = leadHours
	} else {
		r.ExternalLeadHours = 0
	}
	r.UpdatedAt = m.clock.Now()

	if err := m.store.Update(ctx, r); err != nil {
		return fmt.Errorf("annotate %s: %w", id, err)
	}
	return nil
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
