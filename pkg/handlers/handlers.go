// Package handlers provides HTTP response utilities shared by the API handlers.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
)

// RespondJSON writes a JSON response with the given status code and data.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs the error and writes a JSON error response of the form
// {"type": "<kind>", "message": "<error message>"} with the kind derived from status.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	RespondErrorType(w, logger, status, ErrorType(status), err)
}

// RespondErrorType is RespondError with an explicit error kind.
// Server-side failures are logged at error level, client failures at debug.
func RespondErrorType(w http.ResponseWriter, logger *slog.Logger, status int, kind string, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("handler error", "error", err, "status", status)
	} else {
		logger.Debug("request rejected", "error", err, "status", status)
	}

	RespondJSON(w, status, ErrorBody{
		Type:    kind,
		Message: err.Error(),
	})
}

// ErrorBody is the JSON envelope for failed requests.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorType returns the client-facing error kind for an HTTP status.
func ErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "ValidationError"
	case http.StatusForbidden:
		return "ForbiddenError"
	case http.StatusNotFound:
		return "NotFound"
	case http.StatusRequestEntityTooLarge:
		return "FileTooLarge"
	case http.StatusServiceUnavailable:
		return "ServiceUnavailable"
	default:
		if status >= http.StatusInternalServerError {
			return "ServerError"
		}
		return http.StatusText(status)
	}
}

// SetAttachment sets Content-Disposition so browsers save the body under filename.
// Non-ASCII names are encoded as RFC 2231 parameters.
func SetAttachment(w http.ResponseWriter, disposition, filename string) {
	value := mime.FormatMediaType(disposition, map[string]string{"filename": filename})
	if value == "" {
		value = fmt.Sprintf("%s; filename=%q", disposition, "download")
	}
	w.Header().Set("Content-Disposition", value)
}
