package files

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/strongbox/internal/blobs"
	"github.com/JaimeStill/strongbox/pkg/auth"
)

// System defines the public contract for file domain operations.
// Every operation acts on behalf of the given principal.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Create(ctx context.Context, p auth.Principal, cmd CreateCommand) (*File, error)
	Attach(ctx context.Context, p auth.Principal, id, documentID uuid.UUID) error
	Rename(ctx context.Context, p auth.Principal, id uuid.UUID, name string) error
	Process(ctx context.Context, p auth.Principal, id uuid.UUID) error
	Reorder(ctx context.Context, p auth.Principal, documentID uuid.UUID, ids []uuid.UUID) error
	Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error

	ListByDocument(ctx context.Context, p auth.Principal, documentID *uuid.UUID) ([]File, error)
	ListVersions(ctx context.Context, p auth.Principal, id uuid.UUID) ([]File, error)
	Data(ctx context.Context, p auth.Principal, id uuid.UUID, kind blobs.Kind) (*Data, error)

	ExportDocument(ctx context.Context, p auth.Principal, documentID uuid.UUID) (*Export, error)
	ExportFiles(ctx context.Context, p auth.Principal, ids []uuid.UUID) (*Export, error)

	Translate(ctx context.Context, p auth.Principal, id uuid.UUID, to string) (*File, error)
}
