package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/strongbox/internal/acl"
	"github.com/JaimeStill/strongbox/internal/documents"
	"github.com/JaimeStill/strongbox/pkg/auth"
	"github.com/JaimeStill/strongbox/pkg/repository"
)

func requireUser(p auth.Principal) error {
	if !p.Authenticated() {
		return ErrForbidden
	}
	return nil
}

// authorize checks p against f. Orphans are visible to their owner only;
// attached files defer to the document's access rules. Every denial is
// reported as ErrNotFound.
func (r *repo) authorize(ctx context.Context, p auth.Principal, f *File, perm acl.Permission) error {
	if f.Orphan() {
		if !p.Authenticated() || f.OwnerID != p.UserID {
			return ErrNotFound
		}
		return nil
	}
	return r.authorizeDocument(ctx, p, *f.DocumentID, perm)
}

// authorizeDocument checks perm on a document. Share tokens only grant READ.
func (r *repo) authorizeDocument(ctx context.Context, p auth.Principal, documentID uuid.UUID, perm acl.Permission) error {
	if perm == acl.Write {
		p = p.WithoutShare()
	}

	ok, err := r.acl.CheckPermission(ctx, documentID, perm, p.Targets())
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// load finds a file and checks p may use it with perm.
func (r *repo) load(ctx context.Context, p auth.Principal, id uuid.UUID, perm acl.Permission) (*File, error) {
	f, err := findFile(ctx, r.db, id, false)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrIllegalFile)
	}
	if err := r.authorize(ctx, p, &f, perm); err != nil {
		return nil, err
	}
	return &f, nil
}

// document resolves a document and checks p may use it with perm.
func (r *repo) document(ctx context.Context, p auth.Principal, id uuid.UUID, perm acl.Permission) (*documents.Document, error) {
	doc, err := r.docs.Find(ctx, id)
	if errors.Is(err, documents.ErrNotFound) {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := r.authorizeDocument(ctx, p, doc.ID, perm); err != nil {
		return nil, err
	}
	return doc, nil
}
