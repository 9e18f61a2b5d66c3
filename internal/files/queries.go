package files

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/strongbox/pkg/query"
	"github.com/JaimeStill/strongbox/pkg/repository"
)

func findFile(ctx context.Context, q repository.Querier, id uuid.UUID, lock bool) (File, error) {
	qb := query.NewBuilder(projection)
	if lock {
		qb.ForUpdate()
	}
	stmt, args := qb.BuildSingle("ID", id)
	return repository.QueryOne(ctx, q, stmt, args, scanFile)
}

func findVersion(ctx context.Context, q repository.Querier, versionID uuid.UUID, number int) (File, error) {
	stmt, args := query.NewBuilder(projection).
		WhereEquals("VersionID", versionID).
		WhereEquals("VersionNumber", number).
		ForUpdate().
		Build()
	return repository.QueryOne(ctx, q, stmt, args, scanFile)
}

func listActive(ctx context.Context, q repository.Querier, documentID uuid.UUID) ([]File, error) {
	stmt, args := query.NewBuilder(projection, byOrder).
		WhereEquals("DocumentID", documentID).
		WhereEquals("Latest", true).
		Build()
	return repository.QueryMany(ctx, q, stmt, args, scanFile)
}

func listOrphans(ctx context.Context, q repository.Querier, owner string) ([]File, error) {
	stmt, args := query.NewBuilder(projection, byCreated).
		WhereNull("DocumentID", true).
		WhereEquals("OwnerID", owner).
		WhereEquals("Latest", true).
		Build()
	return repository.QueryMany(ctx, q, stmt, args, scanFile)
}

func listVersions(ctx context.Context, q repository.Querier, versionID uuid.UUID) ([]File, error) {
	stmt, args := query.NewBuilder(projection, byVersion).
		WhereEquals("VersionID", versionID).
		Build()
	return repository.QueryMany(ctx, q, stmt, args, scanFile)
}

func listByIDs(ctx context.Context, q repository.Querier, ids []uuid.UUID) ([]File, error) {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	stmt, args := query.NewBuilder(projection).WhereIn("ID", values).Build()
	return repository.QueryMany(ctx, q, stmt, args, scanFile)
}

// nextOrder returns one past the highest order among the document's active
// files, or 0 for an empty document. With dense orders this is the active
// count; after a gap it still never repeats an order in use.
func nextOrder(ctx context.Context, q repository.Querier, documentID uuid.UUID) (int, error) {
	return repository.QueryScalar[int](ctx, q,
		"SELECT COALESCE(MAX(f.sort_order) + 1, 0) FROM public.files f WHERE f.document_id = $1 AND f.latest = $2",
		documentID, true,
	)
}

// lockDocument serializes order assignment among writers of one document.
func lockDocument(ctx context.Context, q repository.Querier, documentID uuid.UUID) error {
	_, err := repository.QueryScalar[uuid.UUID](ctx, q,
		"SELECT id FROM documents WHERE id = $1 AND deleted_at IS NULL FOR UPDATE",
		documentID,
	)
	return err
}

func insertFile(ctx context.Context, q repository.Querier, f *File) error {
	created, err := repository.QueryScalar[time.Time](ctx, q, `
		INSERT INTO files (id, document_id, version_id, version_number, sort_order, name, mime_type, size, owner_id, latest)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING create_date`,
		f.ID, nullable(f.DocumentID), f.VersionID, f.VersionNumber, f.Order,
		f.Name, f.MimeType, f.Size, f.OwnerID, f.Latest,
	)
	if err != nil {
		return err
	}
	f.CreateDate = created
	return nil
}

func setLatest(ctx context.Context, e repository.Executor, id uuid.UUID, latest bool) error {
	return repository.ExecExpectOne(ctx, e, "UPDATE files SET latest = $2 WHERE id = $1", id, latest)
}

func setOrder(ctx context.Context, e repository.Executor, id uuid.UUID, order int) error {
	return repository.ExecExpectOne(ctx, e, "UPDATE files SET sort_order = $2 WHERE id = $1", id, order)
}

func setName(ctx context.Context, e repository.Executor, id uuid.UUID, name string) error {
	return repository.ExecExpectOne(ctx, e, "UPDATE files SET name = $2 WHERE id = $1", id, name)
}

// attachChain moves every orphan record of a chain onto the document.
func attachChain(ctx context.Context, e repository.Executor, versionID, documentID uuid.UUID, order int) error {
	return repository.ExecExpectOne(ctx, e,
		"UPDATE files SET document_id = $2, sort_order = $3 WHERE version_id = $1 AND document_id IS NULL",
		versionID, documentID, order,
	)
}

func deleteFile(ctx context.Context, e repository.Executor, id uuid.UUID) error {
	return repository.ExecExpectOne(ctx, e, "DELETE FROM files WHERE id = $1", id)
}

// reserveQuota charges size bytes to owner. A quota of 0 is unlimited.
func reserveQuota(ctx context.Context, e repository.Executor, owner string, size int64) error {
	err := repository.ExecExpectOne(ctx, e, `
		UPDATE users SET storage_current = storage_current + $2
		WHERE id = $1 AND (storage_quota = 0 OR storage_current + $2 <= storage_quota)`,
		owner, size,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrQuotaReached
	}
	return err
}
