package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// PostgresMatchesRepository care_matches (written by the upstream matcher)
type PostgresMatchesRepository struct {
	db *sql.DB
}

func NewPostgresMatchesRepository(db *sql.DB) *PostgresMatchesRepository {
	return &PostgresMatchesRepository{db: db}
}

var _ MatchesRepository = (*PostgresMatchesRepository)(nil)

const matchColumns = `match_id::text, patient_id::text, agency_id::text, score::float8, tags, created_at`

func scanMatch(row interface{ Scan(...any) error }) (*domain.CareMatch, error) {
	var m domain.CareMatch
	if err := row.Scan(&m.MatchID, &m.PatientID, &m.AgencyID, &m.Score, &m.Tags, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresMatchesRepository) ListMatches(ctx context.Context, patientID string, offset, limit int) ([]*domain.CareMatch, int, error) {
	total, err := r.CountMatches(ctx, patientID)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + matchColumns + ` FROM care_matches
		WHERE patient_id = $1
		ORDER BY score DESC, created_at
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	out := []*domain.CareMatch{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *PostgresMatchesRepository) CountMatches(ctx context.Context, patientID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM care_matches WHERE patient_id = $1`, patientID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return n, nil
}

func (r *PostgresMatchesRepository) GetMatch(ctx context.Context, matchID string) (*domain.CareMatch, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM care_matches WHERE match_id = $1`, matchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}
