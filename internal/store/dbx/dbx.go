package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrReferenced rejects deleting a row other rows still point at.
	ErrReferenced = errors.New("referenced by other records")
	ErrConflict   = errors.New("conflict")
	ErrForeignKey = errors.New("foreign key violation")
	ErrCheck      = errors.New("check constraint violation")
)

// ConstraintError carries the constraint that rejected a write.
type ConstraintError struct {
	Kind       error
	Constraint string
	Column     string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%v (%s)", e.Kind, e.Constraint)
	}
	return e.Kind.Error()
}

func (e *ConstraintError) Is(target error) bool { return target == e.Kind }

func (e *ConstraintError) Unwrap() error { return e.Err }

// Queryer/Execer/Getter let these helpers work with *sql.DB and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
type Getter interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	Queryer
	Execer
	Getter
}

// WithinTx runs fn in a transaction (commit on nil, rollback on error).
func WithinTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// MapPGError turns integrity violations reported by Postgres into
// *ConstraintError values matching ErrConflict, ErrForeignKey or ErrCheck.
// Other errors are returned as is.
func MapPGError(err error) error {
	if err == nil {
		return nil
	}
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return err
	}
	var kind error
	switch pg.Code {
	case pgerrcode.UniqueViolation:
		kind = ErrConflict
	case pgerrcode.ForeignKeyViolation:
		kind = ErrForeignKey
	case pgerrcode.CheckViolation, pgerrcode.NumericValueOutOfRange:
		kind = ErrCheck
	default:
		return err
	}
	return &ConstraintError{Kind: kind, Constraint: pg.ConstraintName, Column: pg.ColumnName, Err: err}
}

// ConstraintOf returns the violated constraint name, if err carries one.
func ConstraintOf(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

// RowsAffected reports ErrNotFound when a keyed write touched nothing.
func RowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
