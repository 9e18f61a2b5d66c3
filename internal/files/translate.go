package files

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/strongbox/internal/acl"
	"github.com/JaimeStill/strongbox/internal/extract"
	"github.com/JaimeStill/strongbox/pkg/auth"
	"github.com/JaimeStill/strongbox/pkg/repository"
)

func (r *repo) Translate(ctx context.Context, p auth.Principal, id uuid.UUID, to string) (*File, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if to = strings.TrimSpace(to); to == "" {
		return nil, fmt.Errorf("%w: to is required", ErrValidation)
	}
	if r.translator == nil {
		return nil, fmt.Errorf("%w: translation is not configured", ErrTranslation)
	}

	src, err := findFile(ctx, r.db, id, false)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrIllegalFile)
	}
	if src.Orphan() {
		return nil, fmt.Errorf("%w: file %s is not attached to a document", ErrNotFound, id)
	}

	p = p.WithoutShare()
	doc, err := r.document(ctx, p, *src.DocumentID, acl.Read)
	if err != nil {
		return nil, err
	}
	if err := r.authorizeDocument(ctx, p, doc.ID, acl.Write); err != nil {
		return nil, err
	}

	text, err := r.extractText(ctx, &src)
	if err != nil {
		return nil, err
	}

	result, err := r.translator.Document(ctx, text, doc.Language, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranslation, err)
	}

	f := &File{
		ID:        uuid.New(),
		VersionID: uuid.New(),
		Name:      src.Name + "_" + to + ".pdf",
		MimeType:  "application/pdf",
		OwnerID:   p.UserID,
		Latest:    true,
	}

	size, err := r.blobs.Store(ctx, f.Handle(), bytes.NewReader(result.PDF))
	if err != nil {
		return nil, fmt.Errorf("%w: store translation: %w", ErrTranslation, err)
	}
	f.Size = size

	target := *doc
	target.Language = to
	pl := placement{owner: p.UserID, document: &target}

	_, err = repository.WithUnit(ctx, r.db, func(u *repository.Unit) (struct{}, error) {
		return struct{}{}, r.insert(ctx, u, p, f, pl)
	})
	if err != nil {
		r.discard(ctx, f)
		return nil, mapWriteError(err)
	}

	r.logger.Info("file translated",
		"source_id", src.ID,
		"id", f.ID,
		"to", to,
		"pages", result.Pages,
	)
	return f, nil
}

func (r *repo) extractText(ctx context.Context, f *File) (string, error) {
	if !extract.Supported(f.MimeType) {
		return "", fmt.Errorf("%w: %w: %s", ErrTranslation, extract.ErrUnsupported, f.MimeType)
	}

	rc, err := r.blobs.Load(ctx, f.Handle())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	text, err := extract.Text(f.MimeType, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranslation, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text found in %s", ErrTranslation, f.Name)
	}
	return text, nil
}
