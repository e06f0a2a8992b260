package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newOpenAPIHandlerWith(data string, err error) *OpenAPIHandler {
	h := NewOpenAPIHandler("openapi.yaml")
	h.readFile = func(string) ([]byte, error) { return []byte(data), err }
	return h
}

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	const doc = "openapi: 3.0.3\ninfo:\n  title: Cupid Code API\n  version: 1.0.0\npaths: {}\n"

	t.Run("serves yaml", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		newOpenAPIHandlerWith(doc, nil).ServeYAML(w, httptest.NewRequest("GET", "/api/v1/openapi.yaml", nil))
		if w.Code != http.StatusOK || w.Body.String() != doc {
			t.Errorf("Expected document back, got %d %q", w.Code, w.Body.String())
		}
	})

	t.Run("serves json", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		newOpenAPIHandlerWith(doc, nil).ServeJSON(w, httptest.NewRequest("GET", "/api/v1/openapi.json", nil))
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json, got %s", ct)
		}
		var got map[string]any
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode json: %v", err)
		}
		info, _ := got["info"].(map[string]any)
		if info["title"] != "Cupid Code API" {
			t.Errorf("Expected title in json, got %v", got)
		}
	})

	tests := []struct {
		name string
		data string
		err  error
	}{
		{"missing file", "", errors.New("no such file")},
		{"invalid yaml", "openapi: [", nil},
		{"not an openapi document", "title: x\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			newOpenAPIHandlerWith(tt.data, tt.err).ServeJSON(w, httptest.NewRequest("GET", "/api/v1/openapi.json", nil))
			if w.Code != http.StatusNotFound {
				t.Errorf("Expected 404, got %d", w.Code)
			}
		})
	}
}

func TestMenuHandler(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	NewMenuHandler().GetMenu(w, httptest.NewRequest("GET", "/api/v1/menu", nil))

	var menu Menu
	decodeEnvelope(t, w, &menu)
	if menu.Title != "Welcome to Cupid Code!!" {
		t.Errorf("Unexpected title %q", menu.Title)
	}
	if len(menu.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(menu.Entries))
	}
	wantAvailable := map[string]bool{"todo_list": true, "ai_chef": false, "diary": false}
	for _, e := range menu.Entries {
		if e.Available != wantAvailable[e.ID] {
			t.Errorf("Entry %s: expected available=%v", e.ID, wantAvailable[e.ID])
		}
		if e.Available && e.Href == "" {
			t.Errorf("Entry %s: expected href", e.ID)
		}
	}
}
