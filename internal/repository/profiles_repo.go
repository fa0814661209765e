package repository

import (
	"context"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// ProfilesRepository identity-provider account rows
type ProfilesRepository interface {
	// GetProfile returns ErrNotFound when the account row has been deleted.
	GetProfile(ctx context.Context, accountID string) (*domain.Profile, error)
}
