// Package acl answers whether a principal may read or write a document.
package acl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Permission is an access right on a document.
type Permission string

const (
	Read  Permission = "READ"
	Write Permission = "WRITE"
)

// Evaluator checks document permissions for a set of principal targets
// (user id, group ids, share token).
type Evaluator interface {
	CheckPermission(ctx context.Context, documentID uuid.UUID, perm Permission, targets []string) (bool, error)
}

const checkQuery = `
SELECT EXISTS (
	SELECT 1 FROM acl
	WHERE source_id = $1
	  AND perm = $2
	  AND target_id = ANY($3)
	  AND deleted_at IS NULL
)`

type postgres struct {
	db *sql.DB
}

// NewPostgres creates an Evaluator over the acl table.
func NewPostgres(db *sql.DB) Evaluator {
	return &postgres{db: db}
}

func (p *postgres) CheckPermission(ctx context.Context, documentID uuid.UUID, perm Permission, targets []string) (bool, error) {
	if len(targets) == 0 {
		return false, nil
	}

	var ok bool
	if err := p.db.QueryRowContext(ctx, checkQuery, documentID, string(perm), targets).Scan(&ok); err != nil {
		return false, fmt.Errorf("check %s on %s: %w", perm, documentID, err)
	}
	return ok, nil
}
