package blobs

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind names a rendition of a file. The zero value is the original upload.
type Kind string

const (
	Original Kind = ""
	Web      Kind = "web"
	Thumb    Kind = "thumb"
	Content  Kind = "content"
)

// Variants lists every derived rendition kind.
var Variants = []Kind{Web, Thumb, Content}

// ParseKind validates a rendition name. The empty string is the original.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Original, Web, Thumb, Content:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Handle locates a file's blobs and names the owner whose key encrypts them.
type Handle struct {
	ID    uuid.UUID
	Owner string
}

// Key returns the storage key of the given rendition: the file id for the
// original, {id}_{kind} for variants.
func (h Handle) Key(kind Kind) string {
	if kind == Original {
		return h.ID.String()
	}
	return h.ID.String() + "_" + string(kind)
}
