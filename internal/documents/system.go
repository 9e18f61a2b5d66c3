package documents

import (
	"context"

	"github.com/google/uuid"
)

// System defines the document lookup the file domain depends on.
type System interface {
	Find(ctx context.Context, id uuid.UUID) (*Document, error)
}
