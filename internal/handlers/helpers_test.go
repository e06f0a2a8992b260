package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// envelope mirrors the success and error response bodies
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("Failed to decode data: %v", err)
		}
	}
	return env
}

// newTestRequest builds a request with an optional JSON body
func newTestRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		raw, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		data   any
		want   string
	}{
		{"object", http.StatusOK, map[string]string{"message": "hello"}, `{"message":"hello"}`},
		{"nil data", http.StatusCreated, nil, `null`},
		{"array", http.StatusOK, []string{"a", "b"}, `["a","b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			env := decodeEnvelope(t, w, nil)
			if !env.Success {
				t.Error("Expected success to be true")
			}
			if string(env.Data) != tt.want {
				t.Errorf("Expected data %s, got %s", tt.want, env.Data)
			}
			if _, err := time.Parse(time.RFC3339, env.Timestamp); err != nil {
				t.Errorf("Timestamp '%s' is not valid RFC3339: %v", env.Timestamp, err)
			}
		})
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	t.Run("without code", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		respondJSONError(w, http.StatusBadRequest, errBadRequest, "Invalid input")

		env := decodeEnvelope(t, w, nil)
		if w.Code != http.StatusBadRequest || env.Success {
			t.Errorf("Expected failed 400, got %d success=%v", w.Code, env.Success)
		}
		if env.Error != errBadRequest || env.Message != "Invalid input" {
			t.Errorf("Unexpected body %+v", env)
		}
		if env.Code != "" {
			t.Errorf("Expected no code, got %q", env.Code)
		}
	})

	t.Run("with code", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		respondJSONErrorCode(w, http.StatusNotFound, errNotFound, "task_not_found", "Task not found")

		env := decodeEnvelope(t, w, nil)
		if env.Code != "task_not_found" {
			t.Errorf("Expected code task_not_found, got %q", env.Code)
		}
	})

	t.Run("long message truncated", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		respondJSONError(w, http.StatusInternalServerError, errInternal, strings.Repeat("x", 500))

		env := decodeEnvelope(t, w, nil)
		if len(env.Message) != maxErrorMessageLength+3 {
			t.Errorf("Expected truncated message, got length %d", len(env.Message))
		}
	})
}

type decodeTarget struct {
	Email string `json:"email" validate:"notblank"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"email":"a@b.c"}`},
		{name: "empty body", body: ``, wantErr: errEmptyBody.Error()},
		{name: "malformed", body: `{"email":`, wantErr: "invalid request body"},
		{name: "unknown field", body: `{"email":"a@b.c","admin":true}`, wantErr: "invalid request body"},
		{name: "fails validation", body: `{"email":"  "}`, wantErr: "validation failed: email failed notblank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst decodeTarget
			err := decodeJSON(req, &dst)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
			if tt.name == "empty body" && !errors.Is(err, errEmptyBody) {
				t.Errorf("Expected errEmptyBody, got %v", err)
			}
		})
	}
}
