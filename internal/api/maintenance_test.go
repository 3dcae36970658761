package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
)

func TestSubmitMaintenanceRequiresFields(t *testing.T) {
	var calls atomic.Int32
	store := &countingStore{Store: seededStore("a", "r")}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}), store)

	_, err := c.Maintenance().Submit(context.Background(), validToken(t), MaintenanceInput{
		Type:    "",
		Details: "x",
		Address: "y",
		Status:  "Open",
	})
	e := assertCategory(t, err, CategoryClient)
	if e.Message != "Type, details, and address are required" {
		t.Errorf("message = %q", e.Message)
	}
	if calls.Load() != 0 {
		t.Errorf("expected zero network calls, got %d", calls.Load())
	}
	if store.gets.Load() != 0 {
		t.Error("validation should run before the session is checked")
	}
}

func TestSubmitMaintenanceDefaultsStatus(t *testing.T) {
	var body MaintenanceInput
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tenant/maintenance" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"_id":"m1","type":"Plumbing","details":"leak","address":"1 Main St"}`))
	}), nil)

	m, err := c.Maintenance().Submit(context.Background(), validToken(t), MaintenanceInput{
		Type: "Plumbing", Details: "leak", Address: "1 Main St",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if body.Status != MaintenanceOpen {
		t.Errorf("submitted status = %q, want Open", body.Status)
	}
	if m.ID != "m1" || m.Status != MaintenanceOpen || m.Priority != "Medium" {
		t.Errorf("unexpected request: %+v", m)
	}
	if m.Images == nil {
		t.Error("Images should default to an empty slice")
	}
}

func TestMaintenanceInvalidStatus(t *testing.T) {
	c := New("http://example.invalid", nil)
	_, err := c.Maintenance().Update(context.Background(), validToken(t), "m1", MaintenanceInput{
		Type: "Electrical", Details: "sparks", Address: "2 Elm", Status: "Done",
	})
	assertCategory(t, err, CategoryClient)
}

func TestMaintenanceGetNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), nil)

	_, err := c.Maintenance().Get(context.Background(), validToken(t), "missing")
	e := assertCategory(t, err, CategoryClient)
	if e.Message != "Maintenance request not found" {
		t.Errorf("message = %q", e.Message)
	}
	if !IsNotFoundError(err) {
		t.Error("expected IsNotFoundError")
	}
}

func TestMaintenanceCancel(t *testing.T) {
	var method, path string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}), nil, WithRole(RoleLandlord))

	if err := c.Maintenance().Cancel(context.Background(), validToken(t), "m7"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if method != http.MethodDelete || path != "/api/landlord/maintenance/m7" {
		t.Errorf("request = %s %s", method, path)
	}
}
