package api

import (
	"log/slog"
	"math"
	"net/http"

	"github.com/formflow/formflow/store"
)

// StatsHandler serves the dashboard analytics counters.
type StatsHandler struct {
	workflows store.WorkflowStore
	records   store.RecordStore
	logger    *slog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(workflows store.WorkflowStore, records store.RecordStore, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{workflows: workflows, records: records, logger: logger}
}

// Stats handles GET /api/stats, returning the requester's own counts.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	totalWorkflows, err := h.workflows.Count(r.Context(), userID)
	if err != nil {
		h.logger.Error("count workflows", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	totalRecords, err := h.records.Count(r.Context(), userID)
	if err != nil {
		h.logger.Error("count records", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	avg := 0
	if totalWorkflows > 0 {
		avg = int(math.Round(float64(totalRecords) / float64(totalWorkflows)))
	}

	WriteJSON(w, http.StatusOK, map[string]int{
		"totalWorkflows":        totalWorkflows,
		"totalRecords":          totalRecords,
		"avgRecordsPerWorkflow": avg,
	})
}
