package alert

import "sort"

// Summary is a read-only projection of the record set for dashboards.
type Summary struct {
	Total      int              `json:"total"`
	ByWorkflow map[Workflow]int `json:"by_workflow"`

	ExclusiveCount          int `json:"exclusive_count"`
	ConfirmedElsewhereCount int `json:"confirmed_elsewhere_count"`

	LocalCount       int `json:"local_count"`
	ContinentalCount int `json:"continental_count"`
}

// Summarize projects records into counts. Pure; safe to call concurrently
// with evolution since it only reads the snapshot it is given.
func Summarize(records []*Record) Summary {
	s := Summary{
		Total: len(records),
		ByWorkflow: map[Workflow]int{
			WorkflowToValidate:        0,
			WorkflowPublished:         0,
			WorkflowUnderSurveillance: 0,
			WorkflowArchived:          0,
		},
	}

	for _, r := range records {
		s.ByWorkflow[r.Workflow]++

		switch r.Exclusivity {
		case ExclusivityExclusive:
			s.ExclusiveCount++
		case ExclusivityConfirmedElsewhere:
			s.ConfirmedElsewhereCount++
		}

		switch r.Scope {
		case ScopeContinental:
			s.ContinentalCount++
		default:
			s.LocalCount++
		}
	}

	return s
}

// SortByCertainty orders records by descending certainty in place, with
// record ID as a stable tiebreaker.
func SortByCertainty(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Certainty != records[j].Certainty {
			return records[i].Certainty > records[j].Certainty
		}
		return records[i].ID < records[j].ID
	})
}
