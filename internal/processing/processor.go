// Package processing derives renditions of changed files and releases the
// storage of deleted ones. Both run as event consumers after commit.
package processing

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/strongbox/internal/blobs"
	"github.com/JaimeStill/strongbox/internal/events"
	"github.com/JaimeStill/strongbox/internal/extract"
	"github.com/JaimeStill/strongbox/pkg/repository"
)

type source struct {
	id       uuid.UUID
	mimeType string
	owner    string
	size     int64
}

func (s source) handle() blobs.Handle {
	return blobs.Handle{ID: s.id, Owner: s.owner}
}

func findSource(ctx context.Context, q repository.Querier, id uuid.UUID) (source, error) {
	return repository.QueryOne(ctx, q,
		"SELECT id, mime_type, owner_id, size FROM files WHERE id = $1",
		[]any{id},
		func(s repository.Scanner) (source, error) {
			var src source
			err := s.Scan(&src.id, &src.mimeType, &src.owner, &src.size)
			return src, err
		},
	)
}

// Processor writes the content, web and thumb renditions of changed files.
// Reprocessing a file overwrites its renditions.
type Processor struct {
	db        *sql.DB
	blobs     blobs.System
	preview   Previewer
	webSize   int
	thumbSize int
	quality   int
	maxSource int64
	logger    *slog.Logger
}

// NewProcessor creates a Processor. A nil preview leaves PDFs without
// image renditions.
func NewProcessor(cfg *Config, db *sql.DB, store blobs.System, preview Previewer, logger *slog.Logger) *Processor {
	return &Processor{
		db:        db,
		blobs:     store,
		preview:   preview,
		webSize:   cfg.WebSize,
		thumbSize: cfg.ThumbSize,
		quality:   cfg.Quality,
		maxSource: cfg.MaxSourceBytes(),
		logger:    logger.With("system", "processor"),
	}
}

func (p *Processor) Name() string { return "processor" }

func (p *Processor) Handle(ctx context.Context, e events.Event) error {
	switch e.Kind {
	case events.FileChanged:
		return p.process(ctx, e)
	case events.DocumentChanged:
		p.logger.Info("document changed", "document_id", e.DocumentID, "user_id", e.UserID)
	}
	return nil
}

func (p *Processor) process(ctx context.Context, e events.Event) error {
	src, err := findSource(ctx, p.db, e.FileID)
	if errors.Is(err, sql.ErrNoRows) {
		p.logger.Debug("file gone before processing", "file_id", e.FileID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("find file: %w", err)
	}

	if p.maxSource > 0 && src.size > p.maxSource {
		renditionsSkipped.WithLabelValues("too_large").Inc()
		p.logger.Info("file too large to process", "file_id", src.id, "size", src.size)
		return nil
	}

	data, err := p.load(ctx, src)
	if err != nil {
		return err
	}

	if err := p.storeText(ctx, src, data); err != nil {
		return err
	}
	return p.storeImages(ctx, src, data)
}

func (p *Processor) load(ctx context.Context, src source) ([]byte, error) {
	rc, err := p.blobs.Load(ctx, src.handle())
	if err != nil {
		return nil, unrecoverable(fmt.Errorf("load original: %w", err))
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, unrecoverable(fmt.Errorf("read original: %w", err))
	}
	return data, nil
}

func (p *Processor) storeText(ctx context.Context, src source, data []byte) error {
	if !extract.Supported(src.mimeType) {
		return nil
	}

	text, err := extract.Text(src.mimeType, data)
	if err != nil {
		p.logger.Warn("text extraction failed", "file_id", src.id, "error", err)
		return nil
	}

	if err := p.blobs.StoreVariant(ctx, src.handle(), blobs.Content, []byte(text)); err != nil {
		return fmt.Errorf("store content: %w", err)
	}
	renditionsStored.WithLabelValues(string(blobs.Content)).Inc()
	return nil
}

func (p *Processor) storeImages(ctx context.Context, src source, data []byte) error {
	img, err := p.decode(ctx, src, data)
	if errors.Is(err, ErrUnsupported) {
		renditionsSkipped.WithLabelValues("unsupported").Inc()
		p.logger.Debug("no image rendition", "file_id", src.id, "mime_type", src.mimeType)
		return nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		renditionsSkipped.WithLabelValues("render_failed").Inc()
		p.logger.Warn("image rendition failed", "file_id", src.id, "error", err)
		return nil
	}

	for _, v := range []struct {
		kind blobs.Kind
		size int
	}{
		{blobs.Web, p.webSize},
		{blobs.Thumb, p.thumbSize},
	} {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := EncodeJPEG(Fit(img, v.size), p.quality)
		if err != nil {
			return events.Permanent(fmt.Errorf("%w: encode %s: %w", ErrRender, v.kind, err))
		}
		if err := p.blobs.StoreVariant(ctx, src.handle(), v.kind, out); err != nil {
			return fmt.Errorf("store %s: %w", v.kind, err)
		}
		renditionsStored.WithLabelValues(string(v.kind)).Inc()
	}

	p.logger.Info("renditions stored", "file_id", src.id)
	return nil
}

func (p *Processor) decode(ctx context.Context, src source, data []byte) (image.Image, error) {
	switch {
	case Decodable(src.mimeType):
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRender, err)
		}
		return img, nil
	case extract.IsPDF(src.mimeType) && p.preview != nil:
		pages, err := api.PageCount(bytes.NewReader(data), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: read pdf: %w", ErrRender, err)
		}
		if pages == 0 {
			return nil, ErrUnsupported
		}
		return p.preview.FirstPage(ctx, data)
	default:
		return nil, ErrUnsupported
	}
}

// unrecoverable marks failures to decrypt the original as permanent; a
// missing or corrupt blob does not heal on retry.
func unrecoverable(err error) error {
	if errors.Is(err, blobs.ErrUnavailable) {
		return events.Permanent(err)
	}
	return err
}
