package repository

import (
	"context"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// FamiliesRepository families + patients
type FamiliesRepository interface {
	GetFamilyByUser(ctx context.Context, userID string) (*domain.Family, error)
	// UpsertFamily creates or updates the family row keyed by user_id.
	UpsertFamily(ctx context.Context, family *domain.Family) (*domain.Family, error)

	GetPatient(ctx context.Context, patientID string) (*domain.Patient, error)
	ListPatients(ctx context.Context, familyID string) ([]*domain.Patient, error)
	CreatePatient(ctx context.Context, patient *domain.Patient) (*domain.Patient, error)
}
