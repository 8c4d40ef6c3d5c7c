package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/formflow/formflow/schema"
	"github.com/formflow/formflow/store"
)

// WorkflowHandler handles workflow schema CRUD endpoints.
type WorkflowHandler struct {
	workflows store.WorkflowStore
	logger    *slog.Logger
}

// NewWorkflowHandler creates a new WorkflowHandler.
func NewWorkflowHandler(workflows store.WorkflowStore, logger *slog.Logger) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows, logger: logger}
}

// List handles GET /api/workflows. Results are sorted newest-first here
// because the store contract returns them unordered.
func (h *WorkflowHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	workflows, err := h.workflows.List(r.Context(), store.WorkflowFilter{OwnerID: userID})
	if err != nil {
		h.logger.Error("list workflows", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if workflows == nil {
		workflows = []*store.Workflow{}
	}
	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	WriteJSON(w, http.StatusOK, map[string]any{"workflows": workflows})
}

// Create handles POST /api/workflows.
func (h *WorkflowHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req struct {
		Name        string        `json:"name"`
		Description string        `json:"description"`
		Fields      []store.Field `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Name and fields are required")
		return
	}

	wf, err := schema.NewWorkflow(userID, req.Name, req.Description, req.Fields)
	if err != nil {
		var vErr *schema.ValidationError
		if errors.As(err, &vErr) {
			WriteError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.workflows.Create(r.Context(), wf); err != nil {
		h.logger.Error("create workflow", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusCreated, wf)
}

// Get handles GET /api/workflows/{id}. A workflow owned by someone else is
// reported as not found so existence does not leak.
func (h *WorkflowHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid workflow id")
		return
	}

	wf, err := h.workflows.Get(r.Context(), id)
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

	WriteJSON(w, http.StatusOK, wf)
}

// Delete handles DELETE /api/workflows/{id}. Deletion does not cascade:
// records referencing the workflow are left in place.
func (h *WorkflowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid workflow id")
		return
	}

	wf, err := h.workflows.Get(r.Context(), id)
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

	if err := h.workflows.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete workflow", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
