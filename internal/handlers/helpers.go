package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/cupid-code/internal/validation"
)

// Error types used in the "error" field of error responses
const (
	errBadRequest   = "Bad Request"
	errUnauthorized = "Unauthorized"
	errForbidden    = "Forbidden"
	errNotFound     = "Not Found"
	errConflict     = "Conflict"
	errInternal     = "Internal Server Error"
	errBadGateway   = "Bad Gateway"
)

// maxErrorMessageLength bounds messages returned to clients
const maxErrorMessageLength = 200

var errEmptyBody = errors.New("request body is empty")

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage truncates messages so internal detail is not echoed back at length
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	respondJSONErrorCode(w, status, errorType, "", message)
}

// respondJSONErrorCode is respondJSONError with a machine readable code
func respondJSONErrorCode(w http.ResponseWriter, status int, errorType, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if code != "" {
		response["code"] = code
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeJSON reads a single JSON object from the body into dst and runs struct validation
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validation.Validate.Struct(dst); err != nil {
		return fmt.Errorf("validation failed: %s", strings.Join(validation.FieldErrors(err), ", "))
	}
	return nil
}
