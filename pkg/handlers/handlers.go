// Package handlers provides JSON response helpers shared by HTTP handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// RespondError logs the error and writes a JSON error response.
// Internal server errors are masked with a generic message.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	logger.Error("request failed", "status", status, "error", err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}

	RespondJSON(w, status, ErrorResponse{Error: message})
}
