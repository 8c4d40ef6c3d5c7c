package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RelayHandler receives inbound webhooks from external automation services
// (e.g. Zapier). Payloads are arbitrary JSON and are acknowledged without
// being validated against any schema.
type RelayHandler struct {
	logger *slog.Logger
}

// NewRelayHandler creates a new RelayHandler.
func NewRelayHandler(logger *slog.Logger) *RelayHandler {
	return &RelayHandler{logger: logger}
}

// Receive handles POST /api/webhook.
func (h *RelayHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to process webhook")
		return
	}

	h.logger.Info("received webhook", "payload", body)

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Webhook received successfully",
		"receivedData": body,
	})
}

// Status handles GET /api/webhook, a liveness probe for relay setup.
func (h *RelayHandler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"message":      "Webhook endpoint is active",
		"instructions": "Send POST requests with your automation data",
	})
}
