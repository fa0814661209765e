package repository

import (
	"context"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// AgenciesRepository agencies and their service/strength/rate rows
type AgenciesRepository interface {
	// ========== agency ==========
	GetAgency(ctx context.Context, agencyID string) (*domain.Agency, error)
	GetAgencyByUser(ctx context.Context, userID string) (*domain.Agency, error)
	// UpsertBusinessInfo creates the agency row on first save (status draft).
	UpsertBusinessInfo(ctx context.Context, userID string, info domain.BusinessInfo) (*domain.Agency, error)
	SetServiceAreas(ctx context.Context, agencyID string, areas []string) error
	SetStatus(ctx context.Context, agencyID string, status domain.AgencyStatus) error
	// MarkOnboardingCompleted sets the flag once; flipped is false when it was already set.
	MarkOnboardingCompleted(ctx context.Context, agencyID string) (flipped bool, err error)
	ListPublished(ctx context.Context) ([]*domain.Agency, error)

	// ========== onboarding steps 2-4 ==========
	ListServices(ctx context.Context, agencyID string) ([]domain.AgencyService, error)
	ListServicesForAgencies(ctx context.Context, agencyIDs []string) (map[string][]domain.AgencyService, error)
	ReplaceServices(ctx context.Context, agencyID string, services []domain.AgencyService) error
	CountServices(ctx context.Context, agencyID string) (int, error)

	ListStrengths(ctx context.Context, agencyID string) ([]domain.AgencyStrength, error)
	ReplaceStrengths(ctx context.Context, agencyID string, strengths []domain.AgencyStrength) error
	CountStrengths(ctx context.Context, agencyID string) (int, error)

	ListRates(ctx context.Context, agencyID string) ([]domain.AgencyRate, error)
	ReplaceRates(ctx context.Context, agencyID string, rates []domain.AgencyRate) error
	CountRates(ctx context.Context, agencyID string) (int, error)
}
