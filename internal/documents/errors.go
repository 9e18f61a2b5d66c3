package documents

import "errors"

// ErrNotFound indicates the document does not exist or was deleted.
var ErrNotFound = errors.New("document not found")
