package blobs

import "errors"

var (
	// ErrUnavailable indicates stored bytes cannot be produced: the blob is
	// missing, the owner key cannot be resolved, or authentication failed.
	ErrUnavailable = errors.New("file content unavailable")
	// ErrInvalidKind indicates an unknown rendition kind.
	ErrInvalidKind = errors.New("invalid rendition kind")
)
