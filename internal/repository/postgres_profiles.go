package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// PostgresProfilesRepository profiles table
type PostgresProfilesRepository struct {
	db *sql.DB
}

func NewPostgresProfilesRepository(db *sql.DB) *PostgresProfilesRepository {
	return &PostgresProfilesRepository{db: db}
}

var _ ProfilesRepository = (*PostgresProfilesRepository)(nil)

func (r *PostgresProfilesRepository) GetProfile(ctx context.Context, accountID string) (*domain.Profile, error) {
	if accountID == "" {
		return nil, fmt.Errorf("profile not found: %w", ErrNotFound)
	}

	query := `
		SELECT id::text, email, role, created_at
		FROM profiles
		WHERE id = $1
	`
	var p domain.Profile
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&p.ID, &p.Email, &p.Role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}
