// Package database centralises sqlx connection helpers for the MySQL
// backend (go-sql-driver/mysql; MariaDB works the same way).
//
// Public entry points:
//
//	DSN(base, password)          – inject a secret into a DSN template.
//	Open(ctx, dsn)               – pool with conservative defaults.
//	OpenWithOptions(ctx, dsn, o) – fine-grained control plus retries.
//	Migrate(ctx, db, stmts)      – idempotent DDL bootstrap.
//
// Open helpers Ping before returning so callers fail fast during boot.
// Callers Close() the returned *sqlx.DB on shutdown.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Options tunes the pool and the boot-time ping.
type Options struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration

	// PingRetries is the number of extra ping attempts, PingBackoff apart,
	// made while the database is still starting (compose, k8s).
	PingRetries int
	PingBackoff time.Duration
}

var defaults = Options{
	MaxOpen:     15,
	MaxIdle:     5,
	MaxLifetime: 30 * time.Minute,
	PingBackoff: 2 * time.Second,
}

// DSN parses base, sets the password when non-empty, and forces parseTime
// so DATETIME columns scan into time.Time.
func DSN(base, password string) (string, error) {
	cfg, err := mysql.ParseDSN(base)
	if err != nil {
		return "", fmt.Errorf("database: parse dsn: %w", err)
	}
	if password != "" {
		cfg.Passwd = password
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return cfg.FormatDSN(), nil
}

// Open returns a *sqlx.DB with 15 max open, 5 idle, and a 30-minute
// connection lifetime.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, defaults)
}

// OpenWithOptions lets callers tune the pool.  Zero fields take defaults.
func OpenWithOptions(ctx context.Context, dsn string, o Options) (*sqlx.DB, error) {
	if o.MaxOpen == 0 {
		o.MaxOpen = defaults.MaxOpen
	}
	if o.MaxIdle == 0 {
		o.MaxIdle = defaults.MaxIdle
	}
	if o.MaxLifetime == 0 {
		o.MaxLifetime = defaults.MaxLifetime
	}
	if o.PingBackoff == 0 {
		o.PingBackoff = defaults.PingBackoff
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(o.MaxOpen)
	db.SetMaxIdleConns(o.MaxIdle)
	db.SetConnMaxLifetime(o.MaxLifetime)

	if err := ping(ctx, db, o); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ping(ctx context.Context, db *sqlx.DB, o Options) error {
	var err error
	for attempt := 0; attempt <= o.PingRetries; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		zap.L().Warn("database ping failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if attempt == o.PingRetries {
			break
		}
		t := time.NewTimer(o.PingBackoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return fmt.Errorf("database: ping: %w", err)
}

// Migrate executes stmts in order.  Statements must be idempotent
// (CREATE TABLE IF NOT EXISTS) since Migrate runs on every boot when
// database.auto_migrate is set.
func Migrate(ctx context.Context, db *sqlx.DB, stmts []string) error {
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("database: migrate step %d: %w", i+1, err)
		}
	}
	zap.L().Info("database schema ensured", zap.Int("statements", len(stmts)))
	return nil
}
