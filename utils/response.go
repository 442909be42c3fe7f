package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string        `json:"error"`
	Message   string        `json:"message"`
	Available *int          `json:"available,omitempty"`
	Details   []FieldDetail `json:"details,omitempty"`
}

// FieldDetail describes one failed request field.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorBody with the given status.
func WriteError(w http.ResponseWriter, status int, body ErrorBody) {
	WriteJSON(w, status, body)
}
