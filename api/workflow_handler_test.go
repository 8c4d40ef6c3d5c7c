package api

import (
	"net/http"
	"testing"

	"github.com/formflow/formflow/store"
)

func contactSchema() map[string]any {
	return map[string]any{
		"name":        "Contacts",
		"description": "People we know",
		"fields": []map[string]any{
			{"id": "f-name", "name": "Name", "type": "text", "required": true, "order": 0},
			{"id": "f-email", "name": "Email", "type": "email", "required": true, "order": 1},
			{"id": "f-sub", "name": "Subscribed", "type": "checkbox", "required": true, "order": 2},
		},
	}
}

func createWorkflow(t *testing.T, srvURL, userID string, body map[string]any) store.Workflow {
	t.Helper()
	var wf store.Workflow
	resp := doJSON(t, http.MethodPost, srvURL+"/api/workflows", userID, body, &wf)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create workflow: status %d", resp.StatusCode)
	}
	return wf
}

func TestWorkflowCreate(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})

	wf := createWorkflow(t, srv.URL, "user-1", contactSchema())
	if wf.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("workflow id not assigned")
	}
	if wf.OwnerID != "user-1" {
		t.Fatalf("owner = %q, want user-1", wf.OwnerID)
	}
	if len(wf.Fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(wf.Fields))
	}
	for i, f := range wf.Fields {
		if f.Order != i {
			t.Fatalf("field %d has order %d", i, f.Order)
		}
	}
	if wf.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not stamped")
	}
}

func TestWorkflowCreateNormalizesFieldOrder(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})

	wf := createWorkflow(t, srv.URL, "user-1", map[string]any{
		"name": "Gapped",
		"fields": []map[string]any{
			{"id": "f-a", "name": "A", "type": "text", "order": 5},
			{"id": "f-b", "name": "B", "type": "text", "order": 5},
		},
	})
	if wf.Fields[0].Order != 0 || wf.Fields[1].Order != 1 {
		t.Fatalf("orders not normalized: %d, %d", wf.Fields[0].Order, wf.Fields[1].Order)
	}
	if wf.Fields[0].ID != "f-a" {
		t.Fatal("input position not preserved")
	}
}

func TestWorkflowCreateRejectsIncompletePayload(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})

	cases := []map[string]any{
		{"fields": []map[string]any{{"id": "f", "name": "F", "type": "text"}}},
		{"name": "NoFields"},
		{"name": "EmptyFields", "fields": []map[string]any{}},
	}
	for _, body := range cases {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/workflows", "user-1", body, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %v: status %d, want 400", body, resp.StatusCode)
		}
		if msg := errorMessage(t, resp); msg != "name and fields are required" {
			t.Fatalf("body %v: error %q", body, msg)
		}
	}
}

func TestWorkflowCreateRejectsBadField(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/workflows", "user-1", map[string]any{
		"name": "Bad",
		"fields": []map[string]any{
			{"id": "f-a", "name": "A", "type": "hologram"},
		},
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestWorkflowListScopedToOwnerNewestFirst(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})

	first := createWorkflow(t, srv.URL, "alice", contactSchema())
	second := createWorkflow(t, srv.URL, "alice", map[string]any{
		"name":   "Later",
		"fields": []map[string]any{{"id": "f", "name": "F", "type": "text"}},
	})
	createWorkflow(t, srv.URL, "bob", contactSchema())

	var body struct {
		Workflows []store.Workflow `json:"workflows"`
	}
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/workflows", "alice", nil, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	if len(body.Workflows) != 2 {
		t.Fatalf("alice sees %d workflows, want 2", len(body.Workflows))
	}
	if body.Workflows[0].ID != second.ID || body.Workflows[1].ID != first.ID {
		t.Fatal("list not sorted newest-first")
	}
}

func TestWorkflowListEmpty(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})

	var body map[string]any
	doJSON(t, http.MethodGet, srv.URL+"/api/workflows", "nobody", nil, &body)
	workflows, ok := body["workflows"].([]any)
	if !ok {
		t.Fatalf("workflows is %T, want array", body["workflows"])
	}
	if len(workflows) != 0 {
		t.Fatalf("expected empty list, got %v", workflows)
	}
}

func TestWorkflowGet(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})
	wf := createWorkflow(t, srv.URL, "alice", contactSchema())

	var got store.Workflow
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/workflows/"+wf.ID.String(), "alice", nil, &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if got.ID != wf.ID || got.Name != "Contacts" {
		t.Fatalf("got %+v", got)
	}

	// Someone else's workflow reads as absent.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/workflows/"+wf.ID.String(), "bob", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-tenant get: status %d, want 404", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Workflow not found" {
		t.Fatalf("cross-tenant get error = %q", msg)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/workflows/not-a-uuid", "alice", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id: status %d, want 400", resp.StatusCode)
	}
}

func TestWorkflowDelete(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})
	wf := createWorkflow(t, srv.URL, "alice", contactSchema())

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/workflows/"+wf.ID.String(), "bob", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-tenant delete: status %d, want 404", resp.StatusCode)
	}

	var ok map[string]bool
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/workflows/"+wf.ID.String(), "alice", nil, &ok)
	if resp.StatusCode != http.StatusOK || !ok["success"] {
		t.Fatalf("delete: status %d body %v", resp.StatusCode, ok)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/workflows/"+wf.ID.String(), "alice", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: status %d, want 404", resp.StatusCode)
	}
}
