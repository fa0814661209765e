package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

// Caller the authenticated account a request runs as.
type Caller struct {
	AccountID string
	Role      domain.Role
}

func (c Caller) check(role domain.Role) error {
	if c.AccountID == "" {
		return ErrUnauthenticated
	}
	if c.Role != role {
		return fmt.Errorf("%w: %s account required", ErrForbidden, role)
	}
	return nil
}

// familyOf resolves the caller's family row.
func familyOf(ctx context.Context, families repository.FamiliesRepository, c Caller) (*domain.Family, error) {
	if err := c.check(domain.RoleFamily); err != nil {
		return nil, err
	}
	f, err := families.GetFamilyByUser(ctx, c.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: family profile not found", ErrForbidden)
		}
		return nil, err
	}
	return f, nil
}

// agencyOf resolves the caller's agency row.
func agencyOf(ctx context.Context, agencies repository.AgenciesRepository, c Caller) (*domain.Agency, error) {
	if err := c.check(domain.RoleProvider); err != nil {
		return nil, err
	}
	a, err := agencies.GetAgencyByUser(ctx, c.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: agency profile not found", ErrForbidden)
		}
		return nil, err
	}
	return a, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
