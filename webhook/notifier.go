// Package webhook delivers record events to a configured external relay
// (e.g. a Zapier catch hook). Delivery is best-effort: a failed or slow
// webhook never delays or fails the API request that triggered it. Failed
// deliveries are kept in an in-memory dead letter store for inspection and
// manual replay.
package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event is the payload posted to the relay endpoint.
type Event struct {
	Event      string         `json:"event"`
	RecordID   uuid.UUID      `json:"recordId"`
	WorkflowID uuid.UUID      `json:"workflowId"`
	Data       map[string]any `json:"data"`
}

// Notifier dispatches record events to a single configured URL.
type Notifier struct {
	url     string
	sender  *Sender
	logger  *slog.Logger
	timeout time.Duration
}

// NewNotifier creates a Notifier posting to url. A Notifier with an empty
// url is valid and drops all events.
func NewNotifier(url string, sender *Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		url:     url,
		sender:  sender,
		logger:  logger,
		timeout: 2 * time.Minute,
	}
}

// Enabled reports whether a relay URL is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.url != ""
}

// RecordCreated fires a record_created event. It returns immediately;
// delivery (including retries) happens on a background goroutine detached
// from the caller's context, and any terminal failure is only logged.
func (n *Notifier) RecordCreated(recordID, workflowID uuid.UUID, data map[string]any) {
	if !n.Enabled() {
		return
	}
	payload, err := json.Marshal(Event{
		Event:      "record_created",
		RecordID:   recordID,
		WorkflowID: workflowID,
		Data:       data,
	})
	if err != nil {
		n.logger.Error("marshal webhook event", "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if _, err := n.sender.Send(ctx, n.url, payload, nil); err != nil {
			n.logger.Warn("webhook delivery failed",
				"url", n.url, "record_id", recordID, "error", err)
		}
	}()
}
