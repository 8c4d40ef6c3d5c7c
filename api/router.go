package api

import (
	"log/slog"
	"net/http"

	"github.com/formflow/formflow/metrics"
	"github.com/formflow/formflow/store"
	"github.com/formflow/formflow/webhook"
)

// Config holds configuration for the API layer.
type Config struct {
	// JWTSecret enables the bearer-token identity path when non-empty.
	JWTSecret string

	// ExportRateLimit is the maximum number of export requests per minute
	// per IP. Defaults to 10 when zero.
	ExportRateLimit int
}

// Stores groups the store interfaces needed by the API.
type Stores struct {
	Workflows store.WorkflowStore
	Records   store.RecordStore
}

// Deps groups the optional collaborators wired into the router.
type Deps struct {
	// Exporter is nil when spreadsheet credentials are unconfigured.
	Exporter Exporter
	// Notifier fires record events to the configured relay; may be nil.
	Notifier *webhook.Notifier
	// DeadLetters exposes the outbound dead-letter admin endpoints when set.
	DeadLetters *webhook.Handler
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// NewRouter creates an http.Handler with all API routes registered.
func NewRouter(stores Stores, cfg Config, deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	mux := http.NewServeMux()
	mw := NewMiddleware([]byte(cfg.JWTSecret))
	m := deps.Metrics

	route := func(pattern, label string, h http.HandlerFunc, wrap ...func(http.Handler) http.Handler) {
		var handler http.Handler = h
		for i := len(wrap) - 1; i >= 0; i-- {
			handler = wrap[i](handler)
		}
		mux.Handle(pattern, m.Instrument(label, handler))
	}

	// --- Workflows ---
	wfH := NewWorkflowHandler(stores.Workflows, deps.Logger)
	route("GET /api/workflows", "/api/workflows", wfH.List, mw.RequireAuth)
	route("POST /api/workflows", "/api/workflows", wfH.Create, mw.RequireAuth)
	route("GET /api/workflows/{id}", "/api/workflows/{id}", wfH.Get, mw.RequireAuth)
	route("DELETE /api/workflows/{id}", "/api/workflows/{id}", wfH.Delete, mw.RequireAuth)

	// --- Records ---
	recH := NewRecordHandler(stores.Records, stores.Workflows, deps.Notifier, deps.Logger)
	route("GET /api/records", "/api/records", recH.List, mw.RequireAuth)
	route("POST /api/records", "/api/records", recH.Create, mw.RequireAuth)
	route("PUT /api/records", "/api/records", recH.Update, mw.RequireAuth)
	route("DELETE /api/records", "/api/records", recH.Delete, mw.RequireAuth)

	// --- Stats ---
	statsH := NewStatsHandler(stores.Workflows, stores.Records, deps.Logger)
	route("GET /api/stats", "/api/stats", statsH.Stats, mw.RequireAuth)

	// --- Export ---
	expH := NewExportHandler(deps.Exporter, m, deps.Logger)
	route("POST /api/export/sheets", "/api/export/sheets", expH.Export,
		mw.RequireAuth, mw.RateLimit(cfg.ExportRateLimit))

	// --- Inbound relay ---
	relayH := NewRelayHandler(deps.Logger)
	route("POST /api/webhook", "/api/webhook", relayH.Receive)
	route("GET /api/webhook", "/api/webhook", relayH.Status)

	// --- Outbound dead letters ---
	if deps.DeadLetters != nil {
		deps.DeadLetters.RegisterRoutes(mux)
	}

	// --- Metrics ---
	mux.Handle("GET /metrics", m.Handler())

	return mux
}
