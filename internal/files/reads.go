package files

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/strongbox/internal/acl"
	"github.com/JaimeStill/strongbox/internal/archive"
	"github.com/JaimeStill/strongbox/internal/blobs"
	"github.com/JaimeStill/strongbox/pkg/auth"
)

func (r *repo) ListByDocument(ctx context.Context, p auth.Principal, documentID *uuid.UUID) ([]File, error) {
	var (
		list []File
		err  error
	)

	if documentID != nil {
		if err := r.authorizeDocument(ctx, p, *documentID, acl.Read); err != nil {
			return nil, err
		}
		list, err = listActive(ctx, r.db, *documentID)
	} else {
		if err := requireUser(p); err != nil {
			return nil, err
		}
		list, err = listOrphans(ctx, r.db, p.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	r.markProcessing(list)
	return list, nil
}

func (r *repo) ListVersions(ctx context.Context, p auth.Principal, id uuid.UUID) ([]File, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}

	f, err := r.load(ctx, p.WithoutShare(), id, acl.Read)
	if err != nil {
		return nil, err
	}

	versions, err := listVersions(ctx, r.db, f.VersionID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	if len(versions) == 0 {
		versions = []File{*f}
	}
	if !Contiguous(versions) {
		r.logger.Warn("version chain is not contiguous", "version_id", f.VersionID, "versions", len(versions))
	}

	r.markProcessing(versions)
	return versions, nil
}

func (r *repo) Data(ctx context.Context, p auth.Principal, id uuid.UUID, kind blobs.Kind) (*Data, error) {
	f, err := r.load(ctx, p, id, acl.Read)
	if err != nil {
		return nil, err
	}

	rendition, err := r.blobs.LoadVariant(ctx, f.Handle(), kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if kind == blobs.Original {
		rendition.ContentType = f.MimeType
	}

	return &Data{File: f, Rendition: rendition}, nil
}

func (r *repo) ExportDocument(ctx context.Context, p auth.Principal, documentID uuid.UUID) (*Export, error) {
	doc, err := r.document(ctx, p, documentID, acl.Read)
	if err != nil {
		return nil, err
	}

	list, err := listActive(ctx, r.db, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return &Export{Name: archive.SafeName(doc.Title), Entries: r.entries(list)}, nil
}

func (r *repo) ExportFiles(ctx context.Context, p auth.Principal, ids []uuid.UUID) (*Export, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: files is required", ErrValidation)
	}

	found, err := listByIDs(ctx, r.db, ids)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	byID := make(map[uuid.UUID]File, len(found))
	for _, f := range found {
		byID[f.ID] = f
	}

	p = p.WithoutShare()
	list := make([]File, 0, len(ids))
	for _, id := range ids {
		f, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err := r.authorize(ctx, p, &f, acl.Read); err != nil {
			return nil, err
		}
		list = append(list, f)
	}

	return &Export{Name: "files", Entries: r.entries(list)}, nil
}

// entries builds archive entries that decrypt each file with its own
// owner's key when the entry is written.
func (r *repo) entries(list []File) []archive.Entry {
	entries := make([]archive.Entry, len(list))
	for i, f := range list {
		h := f.Handle()
		entries[i] = archive.Entry{
			Name:     f.Name,
			MimeType: f.MimeType,
			Modified: f.CreateDate,
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				rc, err := r.blobs.Load(ctx, h)
				if err != nil {
					return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
				}
				return rc, nil
			},
		}
	}
	return entries
}

func (r *repo) markProcessing(list []File) {
	if r.tracker == nil {
		return
	}
	for i := range list {
		list[i].Processing = r.tracker.Processing(list[i].ID)
	}
}
