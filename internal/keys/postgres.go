package keys

import (
	"context"
	"database/sql"
	"errors"
)

const secretQuery = `SELECT private_key FROM users WHERE id = $1 AND deleted_at IS NULL`

type postgresSource struct {
	db *sql.DB
}

// NewPostgresSource reads owner secrets from the users table.
func NewPostgresSource(db *sql.DB) Source {
	return &postgresSource{db: db}
}

func (s *postgresSource) Secret(ctx context.Context, owner string) (string, error) {
	var secret sql.NullString
	if err := s.db.QueryRowContext(ctx, secretQuery, owner).Scan(&secret); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUnknownOwner
		}
		return "", err
	}
	return secret.String, nil
}
