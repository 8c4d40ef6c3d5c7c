package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig() SenderConfig {
	return SenderConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
		Timeout:           time.Second,
	}
}

func TestSenderDeliversOnFirstAttempt(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		got = body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewDeadLetterStore()
	sender := NewSender(fastConfig(), store)

	d, err := sender.Send(context.Background(), srv.URL, []byte(`{"event":"record_created"}`), nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if d.Status != StatusDelivered {
		t.Fatalf("status = %s, want %s", d.Status, StatusDelivered)
	}
	if d.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", d.Attempts)
	}
	if d.DeliveredAt == nil {
		t.Fatal("DeliveredAt not set")
	}
	if string(got) != `{"event":"record_created"}` {
		t.Fatalf("server received %q", got)
	}
	if store.Count() != 0 {
		t.Fatalf("dead letter count = %d, want 0", store.Count())
	}
}

func TestSenderRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewSender(fastConfig(), NewDeadLetterStore())
	d, err := sender.Send(context.Background(), srv.URL, []byte(`{}`), nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if d.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", d.Attempts)
	}
}

func TestSenderDeadLettersAfterExhaustingRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := NewDeadLetterStore()
	sender := NewSender(fastConfig(), store)

	d, err := sender.Send(context.Background(), srv.URL, []byte(`{}`), nil)
	if err == nil {
		t.Fatal("Send succeeded, want error")
	}
	if d.Status != StatusDeadLetter {
		t.Fatalf("status = %s, want %s", d.Status, StatusDeadLetter)
	}
	if d.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3 (1 + 2 retries)", d.Attempts)
	}
	if d.StatusCode != http.StatusBadGateway {
		t.Fatalf("status code = %d", d.StatusCode)
	}
	if store.Count() != 1 {
		t.Fatalf("dead letter count = %d, want 1", store.Count())
	}
}

func TestSenderReplay(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	store := NewDeadLetterStore()
	sender := NewSender(fastConfig(), store)

	d, _ := sender.Send(context.Background(), srv.URL, []byte(`{}`), nil)
	if store.Count() != 1 {
		t.Fatal("expected dead letter after failed send")
	}

	healthy.Store(true)
	replayed, err := sender.Replay(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if replayed.Status != StatusDelivered {
		t.Fatalf("status = %s, want %s", replayed.Status, StatusDelivered)
	}
	if store.Count() != 0 {
		t.Fatalf("dead letter count after replay = %d, want 0", store.Count())
	}

	if _, err := sender.Replay(context.Background(), "wh-missing"); err == nil {
		t.Fatal("Replay of unknown id succeeded, want error")
	}
}

func TestSenderRespectsContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.InitialBackoff = time.Minute
	sender := NewSender(cfg, NewDeadLetterStore())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := sender.Send(ctx, srv.URL, []byte(`{}`), nil)
	if err == nil {
		t.Fatal("Send succeeded, want error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Send blocked for %v despite cancelled context", elapsed)
	}
}

func TestBackoffGrowth(t *testing.T) {
	sender := NewSender(SenderConfig{
		MaxRetries:        5,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0, // deterministic
		Timeout:           time.Second,
	}, NewDeadLetterStore())

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second, // capped
	}
	for i, w := range want {
		if got := sender.backoff(i + 1); got != w {
			t.Fatalf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestDeadLetterStats(t *testing.T) {
	store := NewDeadLetterStore()
	store.Add(&Delivery{ID: "wh-1", Status: StatusDeadLetter, Attempts: 4, CreatedAt: time.Now().Add(-time.Hour)})
	store.Add(&Delivery{ID: "wh-2", Status: StatusDeadLetter, Attempts: 2, CreatedAt: time.Now()})

	stats := store.Stats()
	if stats.Total != 2 {
		t.Fatalf("total = %d, want 2", stats.Total)
	}
	if stats.TotalRetries != 6 {
		t.Fatalf("total retries = %d, want 6", stats.TotalRetries)
	}
	if stats.ByStatus[string(StatusDeadLetter)] != 2 {
		t.Fatalf("by status = %v", stats.ByStatus)
	}
	if stats.OldestEntry == nil || stats.NewestEntry == nil || !stats.OldestEntry.Before(*stats.NewestEntry) {
		t.Fatal("oldest/newest not tracked")
	}

	list := store.List()
	if len(list) != 2 || list[0].ID != "wh-2" {
		t.Fatalf("List order wrong: %v", list)
	}

	if n := store.Purge(); n != 2 {
		t.Fatalf("Purge = %d, want 2", n)
	}
	if store.Count() != 0 {
		t.Fatal("store not empty after purge")
	}
}

func TestNotifierPostsEvent(t *testing.T) {
	received := make(chan Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Errorf("decode event: %v", err)
		}
		received <- ev
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewSender(fastConfig(), NewDeadLetterStore())
	n := NewNotifier(srv.URL, sender, discardLogger())

	recID, wfID := uuid.New(), uuid.New()
	n.RecordCreated(recID, wfID, map[string]any{"f-name": "Ada"})

	select {
	case ev := <-received:
		if ev.Event != "record_created" {
			t.Fatalf("event = %q", ev.Event)
		}
		if ev.RecordID != recID || ev.WorkflowID != wfID {
			t.Fatal("event ids do not match")
		}
		if ev.Data["f-name"] != "Ada" {
			t.Fatalf("event data = %v", ev.Data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for webhook delivery")
	}
}

func TestNotifierDisabledWithoutURL(t *testing.T) {
	var n *Notifier
	if n.Enabled() {
		t.Fatal("nil notifier reports enabled")
	}
	// Must not panic.
	n.RecordCreated(uuid.New(), uuid.New(), nil)

	n = NewNotifier("", nil, discardLogger())
	if n.Enabled() {
		t.Fatal("empty-url notifier reports enabled")
	}
	n.RecordCreated(uuid.New(), uuid.New(), nil)
}
