// AngelaMos | 2026
// service.go

package packages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

// Service applies ownership rules to package CRUD. Every call takes the
// caller's session explicitly.
type Service struct {
	store     Store
	metrics   *core.Metrics
	validator *validator.Validate
}

func NewService(store Store, metrics *core.Metrics) *Service {
	return &Service{
		store:     store,
		metrics:   metrics,
		validator: core.NewValidator(),
	}
}

func (s *Service) List(ctx context.Context, session core.Session) ([]Package, error) {
	if err := core.RequireAuthenticated(session); err != nil {
		return nil, err
	}

	return s.store.Packages().ListByOwner(ctx, session.AccountID)
}

func (s *Service) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	return s.store.Packages().CountByOwner(ctx, ownerID)
}

func (s *Service) Get(
	ctx context.Context,
	session core.Session,
	id int64,
) (*Package, error) {
	if err := core.RequireAuthenticated(session); err != nil {
		return nil, err
	}

	p, err := s.store.Packages().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := checkOwner(p, session); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Add(
	ctx context.Context,
	session core.Session,
	req AddRequest,
) (*Package, error) {
	if err := core.RequireAuthenticated(session); err != nil {
		return nil, err
	}

	req.normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	rating, err := parseRating(req.Rating)
	if err != nil {
		return nil, err
	}

	p := &Package{
		Name:     req.Name,
		Category: req.Category,
		Rating:   rating,
		OwnerID:  session.AccountID,
	}

	err = s.store.WithinTx(ctx, func(repo Repository) error {
		return repo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPackageChange("add")
	slog.InfoContext(ctx, "package added",
		"package_id", p.ID,
		"package_name", p.Name,
		"account_id", session.AccountID,
	)

	return p, nil
}

// Edit applies the non-empty fields of req. The row is locked for the
// duration so concurrent edits serialize.
func (s *Service) Edit(
	ctx context.Context,
	session core.Session,
	id int64,
	req EditRequest,
) (*Package, error) {
	if err := core.RequireAuthenticated(session); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "packages.edit",
		attribute.Int64("package.id", id),
		attribute.Int64("account.id", session.AccountID),
	)
	defer span.End()

	req.normalize()

	var updated *Package
	err := s.store.WithinTx(ctx, func(repo Repository) error {
		p, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := checkOwner(p, session); err != nil {
			return err
		}

		if err := s.validator.Struct(req); err != nil {
			return core.ValidationError(core.FormatValidationError(err))
		}

		if req.Name != "" {
			p.Name = req.Name
		}
		if req.Category != "" {
			p.Category = req.Category
		}
		if req.Rating != "" {
			rating, err := parseRating(req.Rating)
			if err != nil {
				return err
			}
			p.Rating = rating
		}

		if err := repo.Update(ctx, p); err != nil {
			return err
		}

		updated = p
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	s.metrics.RecordPackageChange("edit")
	slog.InfoContext(ctx, "package updated",
		"package_id", updated.ID,
		"package_name", updated.Name,
		"account_id", session.AccountID,
	)

	return updated, nil
}

// Delete removes the package and returns it as it was.
func (s *Service) Delete(
	ctx context.Context,
	session core.Session,
	id int64,
) (*Package, error) {
	if err := core.RequireAuthenticated(session); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "packages.delete",
		attribute.Int64("package.id", id),
		attribute.Int64("account.id", session.AccountID),
	)
	defer span.End()

	var removed *Package
	err := s.store.WithinTx(ctx, func(repo Repository) error {
		p, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := checkOwner(p, session); err != nil {
			return err
		}

		if err := repo.Delete(ctx, id); err != nil {
			return err
		}

		removed = p
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	s.metrics.RecordPackageChange("delete")
	slog.InfoContext(ctx, "package deleted",
		"package_id", removed.ID,
		"package_name", removed.Name,
		"account_id", session.AccountID,
	)

	return removed, nil
}

func checkOwner(p *Package, session core.Session) error {
	if !p.IsOwnedBy(session.AccountID) {
		return fmt.Errorf("package %d: %w", p.ID, core.ForbiddenError("not the package owner"))
	}
	return nil
}
