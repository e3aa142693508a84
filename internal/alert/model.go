package alert

import "time"

// Type identifies the weather phenomenon an alert describes.
type Type string

const (
	TypeWind         Type = "wind"
	TypeRain         Type = "rain"
	TypeSnow         Type = "snow"
	TypeHeat         Type = "heat"
	TypeCold         Type = "cold"
	TypeStorm        Type = "storm"
	TypeThunderstorm Type = "thunderstorm"
	TypeFlood        Type = "flood"
)

// Workflow tracks where a record is in its review lifecycle.
type Workflow string

const (
	// WorkflowToValidate means detected with solid confidence, awaiting review.
	WorkflowToValidate Workflow = "to_validate"

	// WorkflowPublished means confidence is high enough for automatic publication.
	WorkflowPublished Workflow = "published"

	// WorkflowUnderSurveillance means confidence is marginal or the alert
	// went unmatched on recent runs; kept but watched.
	WorkflowUnderSurveillance Workflow = "under_surveillance"

	// WorkflowArchived is the soft-delete marker, distinct from hard delete.
	WorkflowArchived Workflow = "archived"
)

// Severity is derived from type and certainty, never set directly.
type Severity string

const (
	SeverityLow     Severity = "low"
	SeverityMedium  Severity = "medium"
	SeverityHigh    Severity = "high"
	SeverityExtreme Severity = "extreme"
)

// Trend is the direction of certainty change between consecutive matched runs.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// Exclusivity records whether an official external feed also reported the event.
type Exclusivity string

const (
	ExclusivityUnknown            Exclusivity = "unknown"
	ExclusivityExclusive          Exclusivity = "exclusive"
	ExclusivityConfirmedElsewhere Exclusivity = "confirmed_elsewhere"
)

// Scope distinguishes alerts raised for primary-coverage zones from the
// wider continental sweep. It feeds the summary counts only.
type Scope string

const (
	ScopeLocal       Scope = "local"
	ScopeContinental Scope = "continental"
)

// Action tags how a candidate would be handled if confidence alone decided.
// Informational only; workflow is always computed from certainty.
const (
	ActionAuto   = "AUTO"
	ActionManual = "MANUAL"
)

// Candidate is an ephemeral per-run detection, not yet persisted.
type Candidate struct {
	Type       Type      `json:"type"`
	Confidence int       `json:"confidence"`
	Magnitude  string    `json:"magnitude"`
	Country    string    `json:"country"`
	Region     string    `json:"region"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Altitude   float64   `json:"altitude"`
	Scope      Scope     `json:"scope"`
	Action     string    `json:"action"`
	RunID      string    `json:"run_id"`
	DetectedAt time.Time `json:"detected_at"`
}

// HistoryEntry is one certainty observation in a record's life.
type HistoryEntry struct {
	RunID      string    `json:"run_id"`
	Confidence int       `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Record is a persistent cross-run alert entity. Records are owned by the
// lifecycle manager and mutated only through its evolution pass, the admin
// override path, and the read-only annotation paths (exclusivity, export).
type Record struct {
	ID          string      `json:"id"`
	Type        Type        `json:"type"`
	Description string      `json:"description"`
	Country     string      `json:"country"`
	Region      string      `json:"region"`
	Lat         float64     `json:"lat"`
	Lon         float64     `json:"lon"`
	Altitude    float64     `json:"altitude"`
	Scope       Scope       `json:"scope"`
	Severity    Severity    `json:"severity"`
	Certainty   int         `json:"certainty"`
	Workflow    Workflow    `json:"workflow"`
	Trend       Trend       `json:"trend"`
	Exclusivity Exclusivity `json:"exclusivity"`

	// ExternalLeadHours is externalOnset minus our first detection, in hours.
	// Negative means we detected first. Only meaningful when Exclusivity is
	// confirmed_elsewhere.
	ExternalLeadHours float64 `json:"external_lead_hours,omitempty"`

	RunCount       int    `json:"run_count"`
	MissedRunCount int    `json:"missed_run_count"`
	LastRunID      string `json:"last_run_id"`

	History []HistoryEntry `json:"history"`

	// ManualHold is set by an admin override and makes Workflow sticky until
	// blended certainty leaves the band it was in at override time by more
	// than the hysteresis margin.
	ManualHold      bool `json:"manual_hold,omitempty"`
	ManualCertainty int  `json:"manual_certainty,omitempty"`

	ExportedAt    time.Time `json:"exported_at,omitempty"`
	ExportTargets []string  `json:"export_targets,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy. Stores hand out clones so callers never alias
// persisted state.
func (r *Record) Clone() *Record {
	cp := *r
	if r.History != nil {
		cp.History = make([]HistoryEntry, len(r.History))
		copy(cp.History, r.History)
	}
	if r.ExportTargets != nil {
		cp.ExportTargets = make([]string, len(r.ExportTargets))
		copy(cp.ExportTargets, r.ExportTargets)
	}
	return &cp
}

// Classify maps certainty to workflow state. Below the floor the alert is
// not worth keeping active; callers either skip creation or archive.
func Classify(certainty int) Workflow {
	switch {
	case certainty >= 90:
		return WorkflowPublished
	case certainty >= 70:
		return WorkflowToValidate
	case certainty >= 50:
		return WorkflowUnderSurveillance
	default:
		return WorkflowArchived
	}
}

// DeriveSeverity maps type and certainty to a display severity. Storm and
// flood escalate one level because their fixed-score rules only fire on
// compound conditions.
func DeriveSeverity(t Type, certainty int) Severity {
	var s Severity
	switch {
	case certainty > 91:
		s = SeverityExtreme
	case certainty >= 80:
		s = SeverityHigh
	case certainty >= 60:
		s = SeverityMedium
	default:
		s = SeverityLow
	}
	if t == TypeStorm || t == TypeFlood {
		s = escalate(s)
	}
	return s
}

func escalate(s Severity) Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	default:
		return SeverityExtreme
	}
}

// ClampCertainty keeps certainty inside its invariant range.
func ClampCertainty(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
