package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/autopilot/internal/contracts"
	"github.com/viralforge/autopilot/internal/domain"
)

func (h *Handler) runWorkflow(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.RunWorkflow(r.Context())
	if errors.Is(err, domain.ErrWorkflowRunning) {
		// Expected coordination outcome: a run is already active, no queuing.
		writeError(w, http.StatusConflict, "workflow_running", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "workflow completed", contracts.WorkflowRunResponse{
		RunID:      summary.RunID,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Planned:    summary.Planned,
		Produced:   summary.Produced,
		Failed:     summary.Failed,
		Published:  summary.Published,
		Analyzed:   summary.Analyzed,
	})
}

func (h *Handler) workflowStatus(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", map[string]bool{"running": h.service.Running()})
	_ = r
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", contracts.JobResponse{
		JobID:        job.JobID,
		ChannelID:    job.ChannelID,
		Kind:         string(job.Kind),
		Title:        job.Title,
		Priority:     job.Priority,
		Status:       string(job.Status),
		Attempts:     job.Attempts,
		QualityScore: job.QualityScore,
		ExternalURL:  job.ExternalURL,
		ScheduledFor: job.ScheduledFor,
		FailureCode:  job.FailureReason,
		PublishedAt:  job.PublishedAt,
	})
}

func (h *Handler) getAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.service.GetAnalysis(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	drops := make([]contracts.DropPointDTO, 0, len(analysis.DropPoints))
	for _, d := range analysis.DropPoints {
		drops = append(drops, contracts.DropPointDTO{
			OffsetSeconds: d.OffsetSeconds,
			Severity:      string(d.Severity),
			Magnitude:     d.Magnitude,
		})
	}
	writeSuccess(w, http.StatusOK, "", contracts.AnalysisResponse{
		JobID:             analysis.JobID,
		OptimizationScore: analysis.OptimizationScore,
		Grade:             analysis.Grade,
		DropPoints:        drops,
		Insights:          analysis.Insights,
		Recommendations:   analysis.Recommendations,
		AnalyzedAt:        analysis.AnalyzedAt,
	})
}

func (h *Handler) invalidateAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := h.service.InvalidateAnalysis(r.Context(), chi.URLParam(r, "job_id")); err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "analysis invalidated", nil)
}

func (h *Handler) getABTest(w http.ResponseWriter, r *http.Request) {
	test, err := h.service.GetTest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", toABTestResponse(test))
}

func (h *Handler) recordImpressions(w http.ResponseWriter, r *http.Request) {
	h.recordCounter(w, r, false)
}

func (h *Handler) recordClicks(w http.ResponseWriter, r *http.Request) {
	h.recordCounter(w, r, true)
}

func (h *Handler) recordCounter(w http.ResponseWriter, r *http.Request, click bool) {
	testID := chi.URLParam(r, "id")
	var req contracts.CounterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	variantID := strings.TrimSpace(req.VariantID)
	var (
		test domain.ABTest
		err  error
	)
	if click {
		test, err = h.service.RecordClick(r.Context(), testID, variantID, req.Delta)
	} else {
		test, err = h.service.RecordImpression(r.Context(), testID, variantID, req.Delta)
	}
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", toABTestResponse(test))
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.GetDailyReport(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", contracts.ReportResponse{
		Date:        report.Date,
		RunsStarted: report.RunsStarted,
		Planned:     report.Planned,
		Produced:    report.Produced,
		Failed:      report.Failed,
		Published:   report.Published,
		Analyzed:    report.Analyzed,
		TestsOpened: report.TestsOpened,
		TestsClosed: report.TestsClosed,
		Alerts:      report.Alerts,
		Failures:    report.Failures,
		GeneratedAt: report.GeneratedAt,
	})
}

func toABTestResponse(test domain.ABTest) contracts.ABTestResponse {
	variants := make([]contracts.VariantDTO, 0, len(test.Variants))
	for _, v := range test.Variants {
		variants = append(variants, contracts.VariantDTO{
			VariantID:   v.VariantID,
			Payload:     v.Payload,
			Impressions: v.Impressions,
			Clicks:      v.Clicks,
			CTR:         v.CTR,
		})
	}
	return contracts.ABTestResponse{
		TestID:     test.TestID,
		JobID:      test.JobID,
		Kind:       string(test.Kind),
		Status:     string(test.Status),
		Confidence: test.Confidence,
		WinnerID:   test.WinnerID,
		Outcome:    string(test.Outcome),
		Variants:   variants,
		StartedAt:  test.StartedAt,
		EndedAt:    test.EndedAt,
	}
}
