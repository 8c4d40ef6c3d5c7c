package api

import (
	"net/http"
	"testing"
)

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})

	wfA := createWorkflow(t, srv.URL, "alice", contactSchema())
	createWorkflow(t, srv.URL, "alice", map[string]any{
		"name":   "Empty",
		"fields": []map[string]any{{"id": "f", "name": "F", "type": "text"}},
	})
	createWorkflow(t, srv.URL, "bob", contactSchema())

	payload := map[string]any{"f-name": "Ada", "f-email": "a@example.com", "f-sub": true}
	for i := 0; i < 3; i++ {
		createRecord(t, srv.URL, "alice", wfA.ID.String(), payload)
	}

	var body map[string]int
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/stats", "alice", nil, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if body["totalWorkflows"] != 2 {
		t.Fatalf("totalWorkflows = %d, want 2", body["totalWorkflows"])
	}
	if body["totalRecords"] != 3 {
		t.Fatalf("totalRecords = %d, want 3", body["totalRecords"])
	}
	// 3 records over 2 workflows rounds to 2.
	if body["avgRecordsPerWorkflow"] != 2 {
		t.Fatalf("avgRecordsPerWorkflow = %d, want 2", body["avgRecordsPerWorkflow"])
	}
}

func TestStatsEmptyTenant(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})

	var body map[string]int
	doJSON(t, http.MethodGet, srv.URL+"/api/stats", "nobody", nil, &body)
	if body["totalWorkflows"] != 0 || body["totalRecords"] != 0 || body["avgRecordsPerWorkflow"] != 0 {
		t.Fatalf("body = %v", body)
	}
}
