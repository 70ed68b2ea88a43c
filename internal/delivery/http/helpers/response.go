package helpers

import (
	"encoding/json"
	"net/http"
)

// WriteJSON sets Content-Type to application/json, writes statusCode, and
// encodes v.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteFieldErrors writes an error response keyed by field name, e.g.
// {"headcount": "Numbers only!"}.
func WriteFieldErrors(w http.ResponseWriter, statusCode int, fields map[string]string) {
	WriteJSON(w, statusCode, fields)
}

// WriteFieldError writes a single-field error response.
func WriteFieldError(w http.ResponseWriter, statusCode int, field, message string) {
	WriteFieldErrors(w, statusCode, map[string]string{field: message})
}
