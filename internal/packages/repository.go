// AngelaMos | 2026
// repository.go

package packages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Package) error
	GetByID(ctx context.Context, id int64) (*Package, error)
	GetForUpdate(ctx context.Context, id int64) (*Package, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Package, error)
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	Update(ctx context.Context, p *Package) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Package) error {
	query := `
		INSERT INTO packages (package_name, category, rating, freelancer_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.GetContext(ctx, &p.ID, query,
		p.Name,
		p.Category,
		p.Rating,
		p.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("create package: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Package, error) {
	query := `
		SELECT id, package_name, category, rating, freelancer_id
		FROM packages
		WHERE id = $1`

	return r.get(ctx, query, id)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *repository) GetForUpdate(ctx context.Context, id int64) (*Package, error) {
	query := `
		SELECT id, package_name, category, rating, freelancer_id
		FROM packages
		WHERE id = $1
		FOR UPDATE`

	return r.get(ctx, query, id)
}

func (r *repository) get(ctx context.Context, query string, id int64) (*Package, error) {
	var p Package
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError("package")
	}
	if err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}

	return &p, nil
}

func (r *repository) ListByOwner(
	ctx context.Context,
	ownerID int64,
) ([]Package, error) {
	query := `
		SELECT id, package_name, category, rating, freelancer_id
		FROM packages
		WHERE freelancer_id = $1
		ORDER BY id ASC`

	pkgs := []Package{}
	if err := r.db.SelectContext(ctx, &pkgs, query, ownerID); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	return pkgs, nil
}

func (r *repository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	query := `SELECT COUNT(*) FROM packages WHERE freelancer_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, ownerID); err != nil {
		return 0, fmt.Errorf("count packages: %w", err)
	}

	return count, nil
}

func (r *repository) Update(ctx context.Context, p *Package) error {
	query := `
		UPDATE packages
		SET package_name = $2, category = $3, rating = $4
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Category,
		p.Rating,
	)
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update package: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM packages WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete package: %w", core.ErrNotFound)
	}

	return nil
}

// Store hands out repositories, either bound to the pool or to a single
// transaction.
type Store interface {
	Packages() Repository
	WithinTx(ctx context.Context, fn func(repo Repository) error) error
}

type pgStore struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Packages() Repository {
	return NewRepository(s.db)
}

func (s *pgStore) WithinTx(
	ctx context.Context,
	fn func(repo Repository) error,
) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx))
	})
}
