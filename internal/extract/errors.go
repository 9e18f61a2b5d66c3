package extract

import "errors"

var (
	// ErrUnsupported indicates no extractor exists for the content type.
	ErrUnsupported = errors.New("unsupported content type")
	// ErrMalformed indicates the content could not be parsed as its declared type.
	ErrMalformed = errors.New("malformed content")
)
