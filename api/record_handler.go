package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/formflow/formflow/schema"
	"github.com/formflow/formflow/store"
	"github.com/formflow/formflow/webhook"
)

// RecordHandler handles record CRUD endpoints. New records are validated
// against the owning workflow's current field list; updates and deletes only
// check ownership, so records orphaned by a deleted workflow remain fully
// mutable.
type RecordHandler struct {
	records   store.RecordStore
	workflows store.WorkflowStore
	notifier  *webhook.Notifier
	logger    *slog.Logger
}

// NewRecordHandler creates a new RecordHandler. notifier may be nil.
func NewRecordHandler(records store.RecordStore, workflows store.WorkflowStore, notifier *webhook.Notifier, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		records:   records,
		workflows: workflows,
		notifier:  notifier,
		logger:    logger,
	}
}

// List handles GET /api/records with an optional workflowId filter.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	filter := store.RecordFilter{OwnerID: userID}
	if raw := r.URL.Query().Get("workflowId"); raw != "" {
		wfID, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid workflow id")
			return
		}
		filter.WorkflowID = &wfID
	}

	records, err := h.records.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list records", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if records == nil {
		records = []*store.Record{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}

// Create handles POST /api/records. The payload is validated against the
// owning workflow's current schema before anything is written; on success an
// optional record_created webhook fires best-effort.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req struct {
		WorkflowID string         `json:"workflowId"`
		Data       map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Workflow ID and data are required")
		return
	}
	if req.WorkflowID == "" || req.Data == nil {
		WriteError(w, http.StatusBadRequest, "Workflow ID and data are required")
		return
	}

	wfID, err := uuid.Parse(req.WorkflowID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid workflow id")
		return
	}

	wf, err := h.workflows.Get(r.Context(), wfID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Workflow not found")
			return
		}
		h.logger.Error("get workflow", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if wf.OwnerID != userID {
		WriteError(w, http.StatusNotFound, "Workflow not found")
		return
	}

	data, err := schema.Validate(wf.Fields, req.Data)
	if err != nil {
		var vErr *schema.ValidationError
		if errors.As(err, &vErr) {
			WriteError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	rec := &store.Record{
		WorkflowID: wfID,
		OwnerID:    userID,
		Data:       data,
	}
	if err := h.records.Create(r.Context(), rec); err != nil {
		h.logger.Error("create record", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Best-effort side call; never delays or fails the response.
	h.notifier.RecordCreated(rec.ID, rec.WorkflowID, rec.Data)

	WriteJSON(w, http.StatusCreated, rec)
}

// Update handles PUT /api/records. Data is replaced wholesale; no schema
// validation is re-applied, so updates succeed even when the referenced
// workflow no longer exists.
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req struct {
		RecordID string         `json:"recordId"`
		Data     map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Record ID and data are required")
		return
	}
	if req.RecordID == "" || req.Data == nil {
		WriteError(w, http.StatusBadRequest, "Record ID and data are required")
		return
	}

	id, err := uuid.Parse(req.RecordID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Record not found")
		return
	}

	rec, err := h.loadOwned(r, id, userID)
	if rec == nil {
		if err != nil {
			h.logger.Error("get record", "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		WriteError(w, http.StatusNotFound, "Record not found")
		return
	}

	rec.Data = req.Data
	if err := h.records.Update(r.Context(), rec); err != nil {
		h.logger.Error("update record", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Delete handles DELETE /api/records?id=.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	raw := r.URL.Query().Get("id")
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "Record ID is required")
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Record not found")
		return
	}

	rec, err := h.loadOwned(r, id, userID)
	if rec == nil {
		if err != nil {
			h.logger.Error("get record", "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		WriteError(w, http.StatusNotFound, "Record not found")
		return
	}

	if err := h.records.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete record", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// loadOwned fetches a record and applies the ownership rule: a record owned
// by someone else is indistinguishable from an absent one. nil,nil means
// not found or not owned; nil,err means a store failure.
func (h *RecordHandler) loadOwned(r *http.Request, id uuid.UUID, userID string) (*store.Record, error) {
	rec, err := h.records.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if rec.OwnerID != userID {
		return nil, nil
	}
	return rec, nil
}
