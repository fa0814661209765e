package repository

import (
	"context"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// MatchesRepository read-only access to upstream care_matches
type MatchesRepository interface {
	// ListMatches returns one page ordered by score desc plus the total count.
	ListMatches(ctx context.Context, patientID string, offset, limit int) ([]*domain.CareMatch, int, error)
	CountMatches(ctx context.Context, patientID string) (int, error)
	GetMatch(ctx context.Context, matchID string) (*domain.CareMatch, error)
}
