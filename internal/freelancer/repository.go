// AngelaMos | 2026
// repository.go

package freelancer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

type Repository interface {
	Create(ctx context.Context, f *Freelancer) error
	GetByID(ctx context.Context, id int64) (*Freelancer, error)
	GetByEmail(ctx context.Context, email string) (*Freelancer, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, f *Freelancer) error {
	query := `
		INSERT INTO freelancers (full_name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		f.FullName,
		f.Email,
		f.PasswordHash,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create freelancer: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create freelancer: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Freelancer, error) {
	query := `
		SELECT id, full_name, email, password_hash, created_at, updated_at
		FROM freelancers
		WHERE id = $1`

	var f Freelancer
	err := r.db.GetContext(ctx, &f, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get freelancer: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get freelancer: %w", err)
	}

	return &f, nil
}

// GetByEmail matches the address exactly, case included.
func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Freelancer, error) {
	query := `
		SELECT id, full_name, email, password_hash, created_at, updated_at
		FROM freelancers
		WHERE email = $1`

	var f Freelancer
	err := r.db.GetContext(ctx, &f, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get freelancer by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get freelancer by email: %w", err)
	}

	return &f, nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	query := `
		UPDATE freelancers
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}
