package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/gestureos/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBinding(t *testing.T, rec *httptest.ResponseRecorder) bindingResponse {
	t.Helper()

	var b bindingResponse
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return b
}

func TestBindingHandler_Create(t *testing.T) {
	s := newTestStore(t)
	changes := 0
	handler := NewBindingHandler(s, nil, func() { changes++ })

	rec := do(t, handler, http.MethodPost, "/api/bindings",
		`{"hand":"right","sign":"swipeUp","priority":1,"plugin_name":"keyboard","action_name":"keystroke","config":{"key":"up"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	b := decodeBinding(t, rec)
	if b.ID == "" {
		t.Error("expected non-empty ID in response")
	}
	if b.Gesture != "right_swipeUp" || b.Kind != "press" || !b.Enabled {
		t.Errorf("unexpected binding %+v", b)
	}
	if string(b.Config) != `{"key":"up"}` {
		t.Errorf("config = %s", b.Config)
	}
	if changes != 1 {
		t.Errorf("onChange called %d times, want 1", changes)
	}

	stored, err := s.Bindings().GetByID(b.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if stored.Priority != 1 || stored.PluginName != "keyboard" {
		t.Errorf("stored binding = %+v", stored)
	}
}

func TestBindingHandler_CreateValidation(t *testing.T) {
	s := newTestStore(t)
	changes := 0
	handler := NewBindingHandler(s, nil, func() { changes++ })

	tests := map[string]string{
		"invalid json":   `{`,
		"unknown hand":   `{"hand":"middle","sign":"palm","plugin_name":"p","action_name":"a"}`,
		"unknown sign":   `{"hand":"left","sign":"wave","plugin_name":"p","action_name":"a"}`,
		"wildcard":       `{"hand":"any","sign":"any","plugin_name":"p","action_name":"a"}`,
		"unknown kind":   `{"hand":"left","sign":"palm","kind":"tap","plugin_name":"p","action_name":"a"}`,
		"hold no count":  `{"hand":"left","sign":"palm","kind":"hold","plugin_name":"p","action_name":"a"}`,
		"missing plugin": `{"hand":"left","sign":"palm","action_name":"a"}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, handler, http.MethodPost, "/api/bindings", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
			}
		})
	}

	if changes != 0 {
		t.Errorf("onChange called %d times for rejected requests", changes)
	}
}

func TestBindingHandler_DuplicatePriority(t *testing.T) {
	s := newTestStore(t)
	handler := NewBindingHandler(s, nil, nil)

	body := `{"hand":"left","sign":"palm","priority":2,"plugin_name":"p","action_name":"a"}`
	if rec := do(t, handler, http.MethodPost, "/api/bindings", body); rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", rec.Code)
	}
	if rec := do(t, handler, http.MethodPost, "/api/bindings", body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create status = %d, want %d", rec.Code, http.StatusConflict)
	}

	// Hold bindings do not compete for priorities.
	hold := `{"hand":"left","sign":"palm","kind":"hold","hold_count":3,"priority":2,"plugin_name":"p","action_name":"a"}`
	if rec := do(t, handler, http.MethodPost, "/api/bindings", hold); rec.Code != http.StatusCreated {
		t.Fatalf("hold create status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBindingHandler_ListGetUpdateDelete(t *testing.T) {
	s := newTestStore(t)
	changes := 0
	handler := NewBindingHandler(s, nil, func() { changes++ })

	created := decodeBinding(t, do(t, handler, http.MethodPost, "/api/bindings",
		`{"hand":"left","sign":"one","plugin_name":"p","action_name":"a"}`))

	rec := do(t, handler, http.MethodGet, "/api/bindings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed listBindingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(listed.Bindings) != 1 || listed.Bindings[0].ID != created.ID {
		t.Fatalf("list = %+v", listed)
	}

	rec = do(t, handler, http.MethodGet, "/api/bindings/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = do(t, handler, http.MethodPut, "/api/bindings/"+created.ID,
		`{"kind":"hold","hold_count":4,"enabled":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBinding(t, rec)
	if updated.Kind != "hold" || updated.HoldCount != 4 || updated.Enabled {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Gesture != "left_one" {
		t.Errorf("gesture changed to %q", updated.Gesture)
	}

	rec = do(t, handler, http.MethodPut, "/api/bindings/"+created.ID, `{"sign":"wave"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad update status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = do(t, handler, http.MethodDelete, "/api/bindings/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, handler, http.MethodGet, "/api/bindings/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := do(t, handler, http.MethodDelete, "/api/bindings/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	// create, update, delete
	if changes != 3 {
		t.Errorf("onChange called %d times, want 3", changes)
	}
}

func TestBindingHandler_HoldCountLimit(t *testing.T) {
	s := newTestStore(t)
	changes := 0
	handler := NewBindingHandler(s, nil, func() { changes++ }).LimitHoldCount(5)

	rec := do(t, handler, http.MethodPost, "/api/bindings",
		`{"hand":"right","sign":"palm","kind":"hold","hold_count":6,"plugin_name":"p","action_name":"a"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("hold_count over window status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = do(t, handler, http.MethodPost, "/api/bindings",
		`{"hand":"right","sign":"palm","kind":"hold","hold_count":5,"plugin_name":"p","action_name":"a"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("hold_count at window status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	id := decodeBinding(t, rec).ID

	rec = do(t, handler, http.MethodPut, "/api/bindings/"+id, `{"hold_count":9}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("update hold_count over window status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	// Press bindings ignore hold_count.
	rec = do(t, handler, http.MethodPost, "/api/bindings",
		`{"hand":"left","sign":"palm","hold_count":9,"plugin_name":"p","action_name":"a"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("press binding status = %d, want %d", rec.Code, http.StatusCreated)
	}

	if changes != 2 {
		t.Errorf("onChange called %d times, want 2", changes)
	}
	stored, err := s.Bindings().GetByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.HoldCount != 5 {
		t.Errorf("stored hold_count = %d, want 5", stored.HoldCount)
	}
}

func TestBindingHandler_MethodNotAllowed(t *testing.T) {
	handler := NewBindingHandler(newTestStore(t), nil, nil)

	if rec := do(t, handler, http.MethodDelete, "/api/bindings", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE collection status = %d", rec.Code)
	}
	if rec := do(t, handler, http.MethodPost, "/api/bindings/abc", "{}"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST item status = %d", rec.Code)
	}
}

type fakeToggle struct {
	enabled bool
}

func (f *fakeToggle) IsEnabled() bool { return f.enabled }

func (f *fakeToggle) SetEnabled(enabled bool) error {
	f.enabled = enabled
	return nil
}

func TestEngineHandler(t *testing.T) {
	toggle := &fakeToggle{enabled: true}
	handler := NewEngineHandler(toggle)

	rec := do(t, handler, http.MethodPut, "/api/engine", `{"enabled":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}
	if toggle.enabled {
		t.Error("toggle still enabled")
	}

	rec = do(t, handler, http.MethodGet, "/api/engine", "")
	var state engineState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.Enabled {
		t.Error("GET reported enabled")
	}

	if rec := do(t, handler, http.MethodPut, "/api/engine", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("PUT without enabled status = %d", rec.Code)
	}
}
