// Package httpx provides JSON request/response utilities for HTTP handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the uniform JSON error envelope.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error body with the given status code.
func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, ErrorBody{Detail: detail})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
