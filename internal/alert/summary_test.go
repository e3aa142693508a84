package alert

import "testing"

func TestSummarize(t *testing.T) {
	t.Parallel()

	records := []*Record{
		{ID: "a", Workflow: WorkflowPublished, Exclusivity: ExclusivityExclusive, Scope: ScopeLocal},
		{ID: "b", Workflow: WorkflowPublished, Exclusivity: ExclusivityConfirmedElsewhere, Scope: ScopeContinental},
		{ID: "c", Workflow: WorkflowToValidate, Exclusivity: ExclusivityUnknown, Scope: ScopeLocal},
		{ID: "d", Workflow: WorkflowUnderSurveillance, Exclusivity: ExclusivityUnknown, Scope: ScopeLocal},
	}

	s := Summarize(records)

	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.ByWorkflow[WorkflowPublished] != 2 {
		t.Errorf("published = %d, want 2", s.ByWorkflow[WorkflowPublished])
	}
	if s.ByWorkflow[WorkflowToValidate] != 1 {
		t.Errorf("to_validate = %d, want 1", s.ByWorkflow[WorkflowToValidate])
	}
	if s.ByWorkflow[WorkflowUnderSurveillance] != 1 {
		t.Errorf("under_surveillance = %d, want 1", s.ByWorkflow[WorkflowUnderSurveillance])
	}
	if s.ByWorkflow[WorkflowArchived] != 0 {
		t.Errorf("archived = %d, want 0", s.ByWorkflow[WorkflowArchived])
	}
	if s.ExclusiveCount != 1 || s.ConfirmedElsewhereCount != 1 {
		t.Errorf("exclusivity counts = %d/%d, want 1/1", s.ExclusiveCount, s.ConfirmedElsewhereCount)
	}
	if s.LocalCount != 3 || s.ContinentalCount != 1 {
		t.Errorf("scope counts = %d/%d, want 3/1", s.LocalCount, s.ContinentalCount)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	s := Summarize(nil)
	if s.Total != 0 {
		t.Errorf("Total = %d, want 0", s.Total)
	}
	if len(s.ByWorkflow) != 4 {
		t.Errorf("ByWorkflow has %d keys, want all 4 states present", len(s.ByWorkflow))
	}
}

func TestSortByCertainty(t *testing.T) {
	t.Parallel()

	records := []*Record{
		{ID: "low", Certainty: 55},
		{ID: "high", Certainty: 95},
		{ID: "mid", Certainty: 75},
	}

	SortByCertainty(records)

	want := []string{"high", "mid", "low"}
	for i, id := range want {
		if records[i].ID != id {
			t.Fatalf("order[%d] = %s, want %s", i, records[i].ID, id)
		}
	}
}
