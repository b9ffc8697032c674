// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand/v2"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/carterperez-dev/freelancer-packages/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Database struct {
	DB *sqlx.DB
}

func NewDatabase(
	ctx context.Context,
	cfg config.DatabaseConfig,
) (*Database, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(jitteredDuration(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close() //nolint:errcheck // cleanup on connection failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := d.DB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

func (d *Database) Stats() sql.DBStats {
	return d.DB.Stats()
}

// Migrate applies the embedded schema migrations. It is safe to run on every
// start; already-applied versions are skipped.
func (d *Database) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, d.DB.DB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (d *Database) HasTable(ctx context.Context, name string) (bool, error) {
	return HasTable(ctx, d.DB, name)
}

func HasTable(ctx context.Context, db DBTX, name string) (bool, error) {
	var exists bool
	query := `SELECT to_regclass($1) IS NOT NULL`
	if err := db.GetContext(ctx, &exists, query, name); err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return exists, nil
}

type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(
		ctx context.Context,
		dest any,
		query string,
		args ...any,
	) error
}

func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	return InTxWithOptions(ctx, db, nil, fn)
}

func InTxWithOptions(
	ctx context.Context,
	db *sqlx.DB,
	opts *sql.TxOptions,
	fn func(tx *sqlx.Tx) error,
) error {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback() //nolint:errcheck // best-effort rollback on panic
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func jitteredDuration(base time.Duration) time.Duration {
	if base <= 0 {
		return base
	}
	//nolint:gosec // G404: non-security-sensitive jitter for connection pool
	jitter := time.Duration(rand.Int64N(int64(base/7) + 1))
	return base + jitter
}
