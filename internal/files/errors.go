package files

import (
	"errors"
	"net/http"
)

// Domain errors for file operations.
var (
	ErrValidation   = errors.New("validation error")
	ErrSize         = errors.New("size must be web, thumb or content")
	ErrForbidden    = errors.New("authentication required")
	ErrNotFound     = errors.New("file not found")
	ErrIllegalFile  = errors.New("illegal file state")
	ErrQuotaReached = errors.New("storage quota reached")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrStream       = errors.New("error reading the input file")
	ErrUnavailable  = errors.New("file content unavailable")
	ErrTranslation  = errors.New("error translating the file")
)

// MapHTTPStatus maps file domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrSize),
		errors.Is(err, ErrIllegalFile),
		errors.Is(err, ErrQuotaReached):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorType returns the client-facing error kind reported in error bodies.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrForbidden):
		return "ForbiddenError"
	case errors.Is(err, ErrFileTooLarge):
		return "FileTooLarge"
	case errors.Is(err, ErrSize):
		return "SizeError"
	case errors.Is(err, ErrIllegalFile):
		return "IllegalFile"
	case errors.Is(err, ErrQuotaReached):
		return "QuotaReached"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrUnavailable):
		return "ServiceUnavailable"
	case errors.Is(err, ErrStream):
		return "StreamError"
	case errors.Is(err, ErrTranslation):
		return "TranslationError"
	default:
		return "ServerError"
	}
}
