package repository

import (
	"context"
	"encoding/json"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// OnboardingSessionsRepository patient onboarding sessions and their dependent rows
type OnboardingSessionsRepository interface {
	GetActiveSession(ctx context.Context, familyID string) (*domain.OnboardingSession, error)
	// GetSession filtered by family ownership.
	GetSession(ctx context.Context, sessionID, familyID string) (*domain.OnboardingSession, error)
	// CreateSession returns the existing active session if one was created concurrently.
	CreateSession(ctx context.Context, familyID string) (*domain.OnboardingSession, error)
	// SaveStep merges data under key in step_data and sets current_step.
	// Completed sessions -> ErrConflict.
	SaveStep(ctx context.Context, sessionID, familyID string, step int, key string, data json.RawMessage) (*domain.OnboardingSession, error)
	// FinalizeSession inserts patient and marks the session completed in one transaction.
	FinalizeSession(ctx context.Context, sessionID, familyID string, patient *domain.Patient) (*domain.OnboardingSession, *domain.Patient, error)
	ListFiles(ctx context.Context, sessionID string) ([]domain.OnboardingFile, error)
	// DeleteSessionCascade removes conversations, analyses, preferences, files and the session.
	DeleteSessionCascade(ctx context.Context, sessionID, familyID string) error
}
