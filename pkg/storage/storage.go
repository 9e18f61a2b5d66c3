// Package storage provides blob persistence behind a single System interface with
// filesystem, Azure Blob Storage and S3 backends.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/strongbox/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
// Blobs are opaque byte streams; callers own encryption and content typing.
type System interface {
	// Start registers startup hooks that prepare the backing store.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams reader to the blob at key, replacing any existing blob.
	// The blob becomes visible only once the full stream has been written.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the blob at key. The caller must close it.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at key. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, key string) error
}

// New creates the storage system selected by cfg.Backend.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "backend", cfg.Backend)

	switch cfg.Backend {
	case BackendFilesystem:
		return newFilesystem(&cfg.Filesystem, logger)
	case BackendAzure:
		return newAzure(&cfg.Azure, logger)
	case BackendS3:
		return newS3(&cfg.S3, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	return nil
}
