// Package shared holds the JSON helpers every HTTP handler uses so error
// envelopes and encoding stay consistent across routes.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "structwhois/pkg/domain-errors"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the HTTP envelope. Internal
// errors never leak their message to the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	message := err.Error()
	if code == dErrors.CodeInternal {
		message = "internal error"
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorResponse{
		Error:   string(code),
		Message: message,
	})
}
