package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/formflow/formflow/export"
	"github.com/formflow/formflow/metrics"
	"github.com/formflow/formflow/store"
)

// Exporter is the spreadsheet export collaborator. Implemented by
// export.SheetsExporter; a fake stands in for it in tests.
type Exporter interface {
	Export(ctx context.Context, workflowName string, fields []store.Field, records []store.Record) (*export.Result, error)
}

// ExportHandler handles POST /api/export/sheets. The export is a pure
// transform of previously-validated data; nothing is re-validated here and
// the caller waits for the external service synchronously.
type ExportHandler struct {
	exporter Exporter // nil when credentials are unconfigured
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewExportHandler creates a new ExportHandler. exporter may be nil when the
// spreadsheet integration is not configured.
func NewExportHandler(exporter Exporter, m *metrics.Metrics, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{exporter: exporter, metrics: m, logger: logger}
}

// Export handles POST /api/export/sheets.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		WriteError(w, http.StatusBadRequest, "Google Sheets integration not configured")
		return
	}

	var req struct {
		WorkflowName string         `json:"workflowName"`
		Fields       []store.Field  `json:"fields"`
		Records      []store.Record `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.exporter.Export(r.Context(), req.WorkflowName, req.Fields, req.Records)
	if err != nil {
		h.logger.Error("sheets export", "workflow", req.WorkflowName, "error", err)
		h.metrics.ExportsTotal.WithLabelValues("error").Inc()
		WriteError(w, http.StatusInternalServerError, "Failed to export to Google Sheets")
		return
	}
	h.metrics.ExportsTotal.WithLabelValues("success").Inc()

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"spreadsheetId": result.SpreadsheetID,
		"url":           result.URL,
	})
}
