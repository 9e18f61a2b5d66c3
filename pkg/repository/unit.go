package repository

import (
	"context"
	"database/sql"
)

// Unit is a unit of work: a transaction plus hooks that observe its outcome.
// Commit hooks run only after a successful Commit, in registration order.
// Rollback hooks run when the transaction is abandoned for any reason.
type Unit struct {
	tx         *sql.Tx
	onCommit   []func()
	onRollback []func()
}

// Tx returns the unit's transaction.
func (u *Unit) Tx() *sql.Tx {
	return u.tx
}

// OnCommit registers fn to run after the transaction commits.
func (u *Unit) OnCommit(fn func()) {
	u.onCommit = append(u.onCommit, fn)
}

// OnRollback registers fn to run if the transaction does not commit.
func (u *Unit) OnRollback(fn func()) {
	u.onRollback = append(u.onRollback, fn)
}

// WithUnit executes fn within a unit of work. If fn returns an error, panics,
// or the commit fails, the transaction is rolled back and rollback hooks run.
func WithUnit[T any](ctx context.Context, db *sql.DB, fn func(u *Unit) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}

	u := &Unit{tx: tx}
	committed := false
	defer func() {
		if committed {
			return
		}
		tx.Rollback()
		for _, hook := range u.onRollback {
			hook()
		}
	}()

	result, err := fn(u)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, err
	}
	committed = true

	for _, hook := range u.onCommit {
		hook()
	}

	return result, nil
}
