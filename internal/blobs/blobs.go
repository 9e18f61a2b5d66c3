// Package blobs stores file bytes encrypted under the file owner's key and
// serves them back as plaintext streams, together with derived renditions.
package blobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/JaimeStill/strongbox/internal/keys"
	"github.com/JaimeStill/strongbox/pkg/crypt"
	"github.com/JaimeStill/strongbox/pkg/storage"
)

const (
	contentTypeSealed = "application/octet-stream"
	contentTypeJPEG   = "image/jpeg"
	contentTypeText   = "text/plain; charset=utf-8"
)

// Rendition is a readable rendition of a file. Placeholder renditions are
// stand-ins served when a derived image has not been produced yet.
type Rendition struct {
	Body        io.ReadCloser
	ContentType string
	Placeholder bool
}

// System encrypts and decrypts file blobs.
type System interface {
	// Store encrypts plaintext under the handle's owner key and writes it as
	// the original rendition. Returns the number of plaintext bytes stored.
	Store(ctx context.Context, h Handle, plaintext io.Reader) (int64, error)
	// Load returns the decrypted original. The first chunk is authenticated
	// before Load returns; later failures surface from Read.
	Load(ctx context.Context, h Handle) (io.ReadCloser, error)
	// StoreVariant encrypts and writes a derived rendition.
	StoreVariant(ctx context.Context, h Handle, kind Kind, data []byte) error
	// LoadVariant returns a rendition. Missing web and thumb variants fall back
	// to a placeholder image; a missing content variant yields empty text.
	LoadVariant(ctx context.Context, h Handle, kind Kind) (*Rendition, error)
	// Delete removes the original and every variant. Missing blobs are ignored.
	Delete(ctx context.Context, h Handle) error
}

type store struct {
	storage storage.System
	keys    keys.Ring
	logger  *slog.Logger
}

// New creates a blob System over the storage backend.
func New(storage storage.System, ring keys.Ring, logger *slog.Logger) System {
	return &store{
		storage: storage,
		keys:    ring,
		logger:  logger.With("system", "blobs"),
	}
}

func (s *store) Store(ctx context.Context, h Handle, plaintext io.Reader) (int64, error) {
	return s.seal(ctx, h, Original, plaintext)
}

func (s *store) StoreVariant(ctx context.Context, h Handle, kind Kind, data []byte) error {
	if kind == Original {
		return fmt.Errorf("%w: variant kind required", ErrInvalidKind)
	}
	_, err := s.seal(ctx, h, kind, bytes.NewReader(data))
	return err
}

func (s *store) Load(ctx context.Context, h Handle) (io.ReadCloser, error) {
	rc, err := s.storage.Download(ctx, h.Key(Original))
	if err != nil {
		return nil, unavailable(err)
	}
	return s.open(ctx, h, rc)
}

func (s *store) LoadVariant(ctx context.Context, h Handle, kind Kind) (*Rendition, error) {
	if kind == Original {
		body, err := s.Load(ctx, h)
		if err != nil {
			return nil, err
		}
		return &Rendition{Body: body}, nil
	}

	rc, err := s.storage.Download(ctx, h.Key(kind))
	if errors.Is(err, storage.ErrNotFound) {
		switch kind {
		case Content:
			return &Rendition{Body: io.NopCloser(bytes.NewReader(nil)), ContentType: contentTypeText}, nil
		default:
			return placeholder(kind), nil
		}
	}
	if err != nil {
		return nil, unavailable(err)
	}

	body, err := s.open(ctx, h, rc)
	if err != nil {
		return nil, err
	}

	contentType := contentTypeJPEG
	if kind == Content {
		contentType = contentTypeText
	}
	return &Rendition{Body: body, ContentType: contentType}, nil
}

func (s *store) Delete(ctx context.Context, h Handle) error {
	var errs []error
	for _, kind := range append([]Kind{Original}, Variants...) {
		if err := s.storage.Delete(ctx, h.Key(kind)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", h.Key(kind), err))
		}
	}
	return errors.Join(errs...)
}

// seal streams plaintext through the encrypting writer into storage.
// The encryptor runs on its own goroutine feeding a pipe the backend reads.
func (s *store) seal(ctx context.Context, h Handle, kind Kind, plaintext io.Reader) (int64, error) {
	key, err := s.keys.Key(ctx, h.Owner)
	if err != nil {
		return 0, unavailable(err)
	}

	pr, pw := io.Pipe()
	counter := &countingReader{r: plaintext}
	done := make(chan error, 1)

	go func() {
		done <- encrypt(pw, key.Material, counter)
	}()

	uploadErr := s.storage.Upload(ctx, h.Key(kind), pr, contentTypeSealed)
	pr.Close()
	encryptErr := <-done

	if encryptErr != nil && !errors.Is(encryptErr, io.ErrClosedPipe) {
		return 0, encryptErr
	}
	if uploadErr != nil {
		return 0, fmt.Errorf("upload %s: %w", h.Key(kind), uploadErr)
	}

	s.logger.Debug("blob stored", "key", h.Key(kind), "bytes", counter.n)
	return counter.n, nil
}

func encrypt(pw *io.PipeWriter, key []byte, src io.Reader) error {
	enc, err := crypt.NewWriter(pw, key)
	if err != nil {
		pw.CloseWithError(err)
		return err
	}
	if _, err := io.Copy(enc, src); err != nil {
		pw.CloseWithError(err)
		return err
	}
	if err := enc.Close(); err != nil {
		pw.CloseWithError(err)
		return err
	}
	return pw.Close()
}

func (s *store) open(ctx context.Context, h Handle, rc io.ReadCloser) (io.ReadCloser, error) {
	key, err := s.keys.Key(ctx, h.Owner)
	if err != nil {
		rc.Close()
		return nil, unavailable(err)
	}

	r, err := crypt.NewReader(rc, key.Material)
	if err != nil {
		rc.Close()
		return nil, unavailable(err)
	}

	return &readCloser{Reader: r, Closer: rc}, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

type readCloser struct {
	io.Reader
	io.Closer
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
