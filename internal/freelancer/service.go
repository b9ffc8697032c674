// AngelaMos | 2026
// service.go

package freelancer

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/freelancer-packages/internal/auth"
	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

type PackageCounter interface {
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
}

type SessionLister interface {
	ActiveSessions(ctx context.Context, session core.Session) ([]auth.SessionInfo, error)
}

// Service is the account store behind the auth gate and the profile page.
type Service struct {
	db   *sqlx.DB
	repo Repository
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db, repo: NewRepository(db)}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*auth.AccountInfo, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toAccountInfo(f), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.AccountInfo, error) {
	f, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return toAccountInfo(f), nil
}

// Create inserts the account in its own transaction so a unique violation
// leaves nothing behind.
func (s *Service) Create(
	ctx context.Context,
	fullName, email, passwordHash string,
) (*auth.AccountInfo, error) {
	f := &Freelancer{
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
	}

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return NewRepository(tx).Create(ctx, f)
	})
	if err != nil {
		return nil, err
	}

	return toAccountInfo(f), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return NewRepository(tx).UpdatePassword(ctx, id, passwordHash)
	})
}

func (s *Service) Profile(
	ctx context.Context,
	session core.Session,
	counter PackageCounter,
	sessions SessionLister,
) (*Profile, error) {
	if err := core.RequireAuthenticated(session); err != nil {
		return nil, err
	}

	f, err := s.repo.GetByID(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}

	count, err := counter.CountByOwner(ctx, f.ID)
	if err != nil {
		return nil, fmt.Errorf("count packages: %w", err)
	}

	active, err := sessions.ActiveSessions(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return &Profile{
		FullName:     f.FullName,
		Email:        f.Email,
		CreatedAt:    f.CreatedAt,
		PackageCount: count,
		Sessions:     active,
	}, nil
}
