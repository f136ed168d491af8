package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/medassure/claims-backoffice/internal/core/domain"
)

// errForbiddenRole guards the async queue entry point; the worker later
// regenerates with a system caller, so the gate has to sit here.
var errForbiddenRole = errors.New("only a claim assessor may request regeneration")

type reportUpdateRequest struct {
	CombinedSummary *string               `json:"combined_summary"`
	Notes           *string               `json:"notes"`
	Approved        domain.ApprovalStatus `json:"approved"`
}

type textUpdateRequest struct {
	Text string `json:"text"`
}

func (rt *Router) generateReport(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}

	start := time.Now()
	report, err := rt.generator.Generate(r.Context(), caller, r.PathValue("claimID"))
	rt.metrics.RecordGeneration("api", "full", time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (rt *Router) enqueueReport(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	if caller.Role != domain.RoleClaimAssessor {
		writeError(w, domain.WrapError(domain.ErrForbidden, "enqueue report", errForbiddenRole))
		return
	}

	claimID := r.PathValue("claimID")
	if err := rt.queue.PublishReportRequested(r.Context(), claimID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"claim_id": claimID, "status": "queued"})
}

func (rt *Router) getReport(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	bundle, err := rt.editor.Get(r.Context(), caller, r.PathValue("reportID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (rt *Router) getReportByClaim(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	bundle, err := rt.editor.GetByClaim(r.Context(), caller, r.PathValue("claimID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (rt *Router) updateReport(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	var req reportUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	update := domain.ReportUpdate{
		CombinedSummary: req.CombinedSummary,
		Notes:           req.Notes,
		Approved:        req.Approved,
	}
	if err := rt.editor.Update(r.Context(), caller, r.PathValue("reportID"), update); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (rt *Router) deleteReport(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	if err := rt.editor.Delete(r.Context(), caller, r.PathValue("reportID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (rt *Router) updateTreatments(w http.ResponseWriter, r *http.Request) {
	rt.updateText(w, r, rt.editor.UpdateTreatments)
}

func (rt *Router) updateDocWise(w http.ResponseWriter, r *http.Request) {
	rt.updateText(w, r, rt.editor.UpdateDocWise)
}

func (rt *Router) updateText(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, caller domain.Caller, reportID, text string) error,
) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	var req textUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}
	if err := apply(r.Context(), caller, r.PathValue("reportID"), req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (rt *Router) regenerateSummary(w http.ResponseWriter, r *http.Request) {
	rt.regenerateVariant(w, r, "summary", rt.generator.SummaryOnly)
}

func (rt *Router) regenerateTreatments(w http.ResponseWriter, r *http.Request) {
	rt.regenerateVariant(w, r, "treatments", rt.generator.TreatmentsOnly)
}

func (rt *Router) regenerateDocWise(w http.ResponseWriter, r *http.Request) {
	rt.regenerateVariant(w, r, "docwise", rt.generator.DocWiseOnly)
}

func (rt *Router) regenerateVariant(
	w http.ResponseWriter,
	r *http.Request,
	variant string,
	generate func(ctx context.Context, caller domain.Caller, reportID string) (string, error),
) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}

	start := time.Now()
	text, err := generate(r.Context(), caller, r.PathValue("reportID"))
	rt.metrics.RecordGeneration("api", variant, time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}
