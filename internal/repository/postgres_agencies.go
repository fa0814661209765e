package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// PostgresAgenciesRepository agencies, agency_services, agency_strengths, agency_rates
type PostgresAgenciesRepository struct {
	db *sql.DB
}

func NewPostgresAgenciesRepository(db *sql.DB) *PostgresAgenciesRepository {
	return &PostgresAgenciesRepository{db: db}
}

var _ AgenciesRepository = (*PostgresAgenciesRepository)(nil)

const agencyColumns = `agency_id::text, user_id::text, business_name, contact_email, contact_phone,
	street_address, city, state, zip_code, description, permit_number, permit_verified,
	service_areas, status, onboarding_completed, created_at, updated_at`

func scanAgency(row interface{ Scan(...any) error }) (*domain.Agency, error) {
	var a domain.Agency
	err := row.Scan(
		&a.AgencyID, &a.UserID, &a.BusinessName, &a.ContactEmail, &a.ContactPhone,
		&a.StreetAddress, &a.City, &a.State, &a.ZipCode, &a.Description, &a.PermitNumber, &a.PermitVerified,
		&a.ServiceAreas, &a.Status, &a.OnboardingCompleted, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresAgenciesRepository) getOne(ctx context.Context, where string, arg string) (*domain.Agency, error) {
	query := `SELECT ` + agencyColumns + ` FROM agencies WHERE ` + where + ` = $1`
	a, err := scanAgency(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("agency not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get agency: %w", err)
	}
	return a, nil
}

func (r *PostgresAgenciesRepository) GetAgency(ctx context.Context, agencyID string) (*domain.Agency, error) {
	return r.getOne(ctx, "agency_id", agencyID)
}

func (r *PostgresAgenciesRepository) GetAgencyByUser(ctx context.Context, userID string) (*domain.Agency, error) {
	return r.getOne(ctx, "user_id", userID)
}

func (r *PostgresAgenciesRepository) UpsertBusinessInfo(ctx context.Context, userID string, info domain.BusinessInfo) (*domain.Agency, error) {
	query := `
		INSERT INTO agencies (
			user_id, business_name, contact_email, contact_phone,
			street_address, city, state, zip_code, description, permit_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			contact_email = EXCLUDED.contact_email,
			contact_phone = EXCLUDED.contact_phone,
			street_address = EXCLUDED.street_address,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip_code = EXCLUDED.zip_code,
			description = EXCLUDED.description,
			-- changing the permit number drops a previous verification
			permit_verified = agencies.permit_verified AND agencies.permit_number = EXCLUDED.permit_number,
			permit_number = EXCLUDED.permit_number,
			updated_at = now()
		RETURNING ` + agencyColumns
	a, err := scanAgency(r.db.QueryRowContext(ctx, query,
		userID, info.BusinessName, info.ContactEmail, info.ContactPhone,
		info.StreetAddress, info.City, info.State, info.ZipCode, info.Description, info.PermitNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert agency: %w", err)
	}
	return a, nil
}

func (r *PostgresAgenciesRepository) exec(ctx context.Context, what, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("agency not found: %w", ErrNotFound)
	}
	return nil
}

func (r *PostgresAgenciesRepository) SetServiceAreas(ctx context.Context, agencyID string, areas []string) error {
	if areas == nil {
		areas = []string{}
	}
	return r.exec(ctx, "set service areas",
		`UPDATE agencies SET service_areas = $2, updated_at = now() WHERE agency_id = $1`,
		agencyID, pq.Array(areas))
}

func (r *PostgresAgenciesRepository) SetStatus(ctx context.Context, agencyID string, status domain.AgencyStatus) error {
	return r.exec(ctx, "set agency status",
		`UPDATE agencies SET status = $2, updated_at = now() WHERE agency_id = $1`,
		agencyID, string(status))
}

func (r *PostgresAgenciesRepository) MarkOnboardingCompleted(ctx context.Context, agencyID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE agencies SET onboarding_completed = TRUE, updated_at = now()
		WHERE agency_id = $1 AND NOT onboarding_completed
	`, agencyID)
	if err != nil {
		return false, fmt.Errorf("failed to mark onboarding completed: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *PostgresAgenciesRepository) ListPublished(ctx context.Context) ([]*domain.Agency, error) {
	query := `SELECT ` + agencyColumns + ` FROM agencies WHERE status = 'published' ORDER BY business_name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list published agencies: %w", err)
	}
	defer rows.Close()

	out := []*domain.Agency{}
	for rows.Next() {
		a, err := scanAgency(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agency: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ========== services ==========

func (r *PostgresAgenciesRepository) ListServices(ctx context.Context, agencyID string) ([]domain.AgencyService, error) {
	byAgency, err := r.ListServicesForAgencies(ctx, []string{agencyID})
	if err != nil {
		return nil, err
	}
	if byAgency[agencyID] == nil {
		return []domain.AgencyService{}, nil
	}
	return byAgency[agencyID], nil
}

func (r *PostgresAgenciesRepository) ListServicesForAgencies(ctx context.Context, agencyIDs []string) (map[string][]domain.AgencyService, error) {
	out := make(map[string][]domain.AgencyService, len(agencyIDs))
	if len(agencyIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT agency_id::text, service_id, service_name
		FROM agency_services
		WHERE agency_id::text = ANY($1)
		ORDER BY agency_id, service_name
	`, pq.Array(agencyIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list agency services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.AgencyService
		if err := rows.Scan(&s.AgencyID, &s.ServiceID, &s.ServiceName); err != nil {
			return nil, fmt.Errorf("failed to scan agency service: %w", err)
		}
		out[s.AgencyID] = append(out[s.AgencyID], s)
	}
	return out, rows.Err()
}

// replaceAll deletes the agency's rows in table and inserts the new set in one transaction.
func (r *PostgresAgenciesRepository) replaceAll(ctx context.Context, table, agencyID string, insert string, rows [][]any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE agency_id = $1`, agencyID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	for _, args := range rows {
		if _, err := tx.ExecContext(ctx, insert, append([]any{agencyID}, args...)...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}

func (r *PostgresAgenciesRepository) ReplaceServices(ctx context.Context, agencyID string, services []domain.AgencyService) error {
	rows := make([][]any, 0, len(services))
	for _, s := range services {
		rows = append(rows, []any{s.ServiceID, s.ServiceName})
	}
	return r.replaceAll(ctx, "agency_services", agencyID,
		`INSERT INTO agency_services (agency_id, service_id, service_name) VALUES ($1, $2, $3)`, rows)
}

func (r *PostgresAgenciesRepository) count(ctx context.Context, table, agencyID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE agency_id = $1`, agencyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (r *PostgresAgenciesRepository) CountServices(ctx context.Context, agencyID string) (int, error) {
	return r.count(ctx, "agency_services", agencyID)
}

// ========== strengths ==========

func (r *PostgresAgenciesRepository) ListStrengths(ctx context.Context, agencyID string) ([]domain.AgencyStrength, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT agency_id::text, service_id, points
		FROM agency_strengths
		WHERE agency_id = $1
		ORDER BY points DESC, service_id
	`, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agency strengths: %w", err)
	}
	defer rows.Close()

	out := []domain.AgencyStrength{}
	for rows.Next() {
		var s domain.AgencyStrength
		if err := rows.Scan(&s.AgencyID, &s.ServiceID, &s.Points); err != nil {
			return nil, fmt.Errorf("failed to scan agency strength: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresAgenciesRepository) ReplaceStrengths(ctx context.Context, agencyID string, strengths []domain.AgencyStrength) error {
	rows := make([][]any, 0, len(strengths))
	for _, s := range strengths {
		rows = append(rows, []any{s.ServiceID, s.Points})
	}
	return r.replaceAll(ctx, "agency_strengths", agencyID,
		`INSERT INTO agency_strengths (agency_id, service_id, points) VALUES ($1, $2, $3)`, rows)
}

func (r *PostgresAgenciesRepository) CountStrengths(ctx context.Context, agencyID string) (int, error) {
	return r.count(ctx, "agency_strengths", agencyID)
}

// ========== rates ==========

func (r *PostgresAgenciesRepository) ListRates(ctx context.Context, agencyID string) ([]domain.AgencyRate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT agency_id::text, service_id, rate_type, amount_minor
		FROM agency_rates
		WHERE agency_id = $1
		ORDER BY service_id, rate_type
	`, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agency rates: %w", err)
	}
	defer rows.Close()

	out := []domain.AgencyRate{}
	for rows.Next() {
		var rt domain.AgencyRate
		if err := rows.Scan(&rt.AgencyID, &rt.ServiceID, &rt.RateType, &rt.AmountMinor); err != nil {
			return nil, fmt.Errorf("failed to scan agency rate: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *PostgresAgenciesRepository) ReplaceRates(ctx context.Context, agencyID string, rates []domain.AgencyRate) error {
	rows := make([][]any, 0, len(rates))
	for _, rt := range rates {
		rows = append(rows, []any{rt.ServiceID, string(rt.RateType), rt.AmountMinor})
	}
	return r.replaceAll(ctx, "agency_rates", agencyID,
		`INSERT INTO agency_rates (agency_id, service_id, rate_type, amount_minor) VALUES ($1, $2, $3, $4)`, rows)
}

func (r *PostgresAgenciesRepository) CountRates(ctx context.Context, agencyID string) (int, error) {
	return r.count(ctx, "agency_rates", agencyID)
}
