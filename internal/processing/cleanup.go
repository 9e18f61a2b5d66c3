package processing

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/strongbox/internal/blobs"
	"github.com/JaimeStill/strongbox/internal/events"
	"github.com/JaimeStill/strongbox/pkg/repository"
)

// Cleanup removes the blobs of deleted files and returns their bytes to the
// owner's quota once per file.
type Cleanup struct {
	db     *sql.DB
	blobs  blobs.System
	logger *slog.Logger
}

// NewCleanup creates a Cleanup consumer.
func NewCleanup(db *sql.DB, store blobs.System, logger *slog.Logger) *Cleanup {
	return &Cleanup{
		db:     db,
		blobs:  store,
		logger: logger.With("system", "cleanup"),
	}
}

func (c *Cleanup) Name() string { return "cleanup" }

func (c *Cleanup) Handle(ctx context.Context, e events.Event) error {
	if e.Kind != events.FileDeleted {
		return nil
	}

	if err := c.blobs.Delete(ctx, blobs.Handle{ID: e.FileID, Owner: e.OwnerID}); err != nil {
		return fmt.Errorf("delete blobs: %w", err)
	}

	if e.OwnerID == "" || e.FreedBytes <= 0 {
		return nil
	}

	released, err := repository.WithTx(ctx, c.db, func(tx *sql.Tx) (bool, error) {
		return releaseQuota(ctx, tx, e)
	})
	if err != nil {
		return fmt.Errorf("release quota: %w", err)
	}

	if released {
		quotaReleased.Add(float64(e.FreedBytes))
		c.logger.Info("quota released", "file_id", e.FileID, "owner_id", e.OwnerID, "bytes", e.FreedBytes)
	}
	return nil
}

// releaseQuota records the release of e's bytes and credits the owner. A
// file already released is skipped.
func releaseQuota(ctx context.Context, tx *sql.Tx, e events.Event) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO file_quota_releases (file_id, owner_id, bytes)
		VALUES ($1, $2, $3)
		ON CONFLICT (file_id) DO NOTHING`,
		e.FileID, e.OwnerID, e.FreedBytes,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE users SET storage_current = GREATEST(storage_current - $2, 0) WHERE id = $1",
		e.OwnerID, e.FreedBytes,
	)
	return err == nil, err
}
