package alertapi

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/stormwatch/internal/alert"
	"github.com/linnemanlabs/stormwatch/internal/lifecycle"
)

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	records, err := a.store.List(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list alert records")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	alert.SortByCertainty(records)

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Int("stormwatch.alerts.count", len(records)))

	if records == nil {
		records = []*alert.Record{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

func (a *API) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("stormwatch.alert.id", id))

	rec, ok, err := a.store.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get alert record", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	span.SetAttributes(attribute.String("stormwatch.alert.workflow", string(rec.Workflow)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rec)
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	records, err := a.store.List(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list alert records for summary")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(alert.Summarize(records))
}

type workflowRequest struct {
	Action string `json:"action"`
}

func (a *API) handleSetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req workflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if req.Action != lifecycle.ActionApprove && req.Action != lifecycle.ActionIgnore {
		http.Error(w, `{"error":"action must be approve or ignore"}`, http.StatusBadRequest)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("stormwatch.alert.id", id),
		attribute.String("stormwatch.workflow.action", req.Action),
	)

	rec, ok, err := a.admin.SetWorkflow(r.Context(), id, req.Action)
	if err != nil {
		a.logger.Error(r.Context(), err, "workflow override failed", "id", id, "action", req.Action)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rec)
}

type exportRequest struct {
	Targets []string `json:"targets"`
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if len(req.Targets) == 0 {
		http.Error(w, `{"error":"at least one export target is required"}`, http.StatusBadRequest)
		return
	}

	rec, ok, err := a.admin.Export(r.Context(), id, req.Targets)
	if err != nil {
		a.logger.Error(r.Context(), err, "export failed", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":             rec.ID,
		"exported_at":    rec.ExportedAt,
		"export_targets": rec.ExportTargets,
	})
}

func (a *API) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if a.runner == nil {
		http.Error(w, `{"error":"run trigger not configured"}`, http.StatusServiceUnavailable)
		return
	}

	res, err := a.runner.Run(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "triggered run failed")
		http.Error(w, `{"error":"run failed"}`, http.StatusInternalServerError)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("stormwatch.run.id", res.RunID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(res)
}
