// Package respond writes JSON response bodies.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// MessageBody is the body of every error and most success responses.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", "error", err)
	}
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// Error writes an error response. The body shape matches Message.
func Error(w http.ResponseWriter, status int, msg string) {
	Message(w, status, msg)
}
