package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

// FamilyService family profile and patients
type FamilyService struct {
	families repository.FamiliesRepository
	logger   *zap.Logger
}

func NewFamilyService(families repository.FamiliesRepository, logger *zap.Logger) *FamilyService {
	return &FamilyService{families: families, logger: logger}
}

// GetProfile family row of the caller; 404 until the profile is first saved.
func (s *FamilyService) GetProfile(ctx context.Context, c Caller) (*domain.Family, error) {
	if err := c.check(domain.RoleFamily); err != nil {
		return nil, err
	}
	f, err := s.families.GetFamilyByUser(ctx, c.AccountID)
	if err != nil {
		return nil, fromRepo(err)
	}
	return f, nil
}

// UpdateProfileRequest PUT /family/profile
type UpdateProfileRequest struct {
	Caller   Caller
	FullName string
	Phone    string
	City     string
	State    string
}

// UpdateProfile creates the family row on first save.
func (s *FamilyService) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*domain.Family, error) {
	if err := req.Caller.check(domain.RoleFamily); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, required("fullName")
	}
	f, err := s.families.UpsertFamily(ctx, &domain.Family{
		UserID:   req.Caller.AccountID,
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		City:     strings.TrimSpace(req.City),
		State:    strings.TrimSpace(req.State),
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListPatients the caller's patients; an account without a family row has none.
func (s *FamilyService) ListPatients(ctx context.Context, c Caller) ([]*domain.Patient, error) {
	if err := c.check(domain.RoleFamily); err != nil {
		return nil, err
	}
	f, err := s.families.GetFamilyByUser(ctx, c.AccountID)
	if errors.Is(err, repository.ErrNotFound) {
		return []*domain.Patient{}, nil
	}
	if err != nil {
		return nil, err
	}
	patients, err := s.families.ListPatients(ctx, f.FamilyID)
	if err != nil {
		return nil, err
	}
	if patients == nil {
		patients = []*domain.Patient{}
	}
	return patients, nil
}
