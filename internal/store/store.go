// internal/store/store.go
//
// MySQL persistence for workspaces, apps, and deep links.
//
// Context
// -------
// Store is the single sqlx-backed implementation of the small storage
// interfaces declared by registry, redirect, and workspace.  Each of those
// packages names only the methods it needs, so tests swap in fakes while
// production passes the same *Store everywhere.
//
// Errors
// ------
//   - ErrNotFound   – the row does not exist (sql.ErrNoRows).
//   - ErrDuplicate  – a unique key rejected the insert (MySQL 1062).
//   - anything else – wrapped driver error.
//
// Notes
// -----
//   - Query text lives in package-level constants so tests can match it
//     with regexp.QuoteMeta.
package store

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// Store wraps a *sqlx.DB.  Safe for concurrent use.
type Store struct {
	db *sqlx.DB
}

// New returns a Store over db.
func New(db *sqlx.DB) *Store { return &Store{db: db} }

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sqlx.DB { return s.db }

// isDuplicate reports whether err is a MySQL duplicate-key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isDuplicate(err):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}
