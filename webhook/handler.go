package webhook

import (
	"encoding/json"
	"net/http"
)

// Handler provides HTTP endpoints for inspecting and replaying failed
// outbound deliveries.
type Handler struct {
	store  *DeadLetterStore
	sender *Sender
}

// NewHandler creates a new webhook admin handler.
func NewHandler(store *DeadLetterStore, sender *Sender) *Handler {
	return &Handler{store: store, sender: sender}
}

// RegisterRoutes registers dead letter API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/webhooks/dead-letter", h.list)
	mux.HandleFunc("GET /api/webhooks/dead-letter/stats", h.stats)
	mux.HandleFunc("POST /api/webhooks/dead-letter/{id}/retry", h.retry)
	mux.HandleFunc("DELETE /api/webhooks/dead-letter/{id}", h.delete)
	mux.HandleFunc("DELETE /api/webhooks/dead-letter", h.purge)
}

func (h *Handler) list(w http.ResponseWriter, _ *http.Request) {
	entries := h.store.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": entries,
		"total": len(entries),
	})
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stats())
}

func (h *Handler) retry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	delivery, err := h.sender.Replay(r.Context(), id)
	if err != nil {
		if delivery != nil {
			// Retry attempted but failed again.
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    err.Error(),
				"delivery": delivery,
			})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, delivery)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}
	if _, ok := h.store.Remove(id); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) purge(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"purged": h.store.Purge()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
