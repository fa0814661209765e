package repository

import (
	"context"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// ContractsRepository contracts table
type ContractsRepository interface {
	CreateContract(ctx context.Context, contract *domain.Contract) (*domain.Contract, error)
	GetContract(ctx context.Context, contractID string) (*domain.Contract, error)

	// TransitionForFamily moves the contract to t.To when it belongs to familyID and its
	// current status is one of t.From. Zero matching rows -> ErrNotFound.
	TransitionForFamily(ctx context.Context, contractID, familyID string, t domain.ContractTransition) (*domain.Contract, error)
	// TransitionForAgency same as TransitionForFamily, filtered by agency_id.
	TransitionForAgency(ctx context.Context, contractID, agencyID string, t domain.ContractTransition) (*domain.Contract, error)

	ListContracts(ctx context.Context, filter ContractsFilter) ([]*domain.Contract, error)
}

// ContractsFilter at least one of FamilyID / AgencyID is required
type ContractsFilter struct {
	FamilyID string
	AgencyID string
	Status   domain.ContractStatus // optional
}
