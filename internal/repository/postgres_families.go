package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// PostgresFamiliesRepository families + patients
type PostgresFamiliesRepository struct {
	db *sql.DB
}

func NewPostgresFamiliesRepository(db *sql.DB) *PostgresFamiliesRepository {
	return &PostgresFamiliesRepository{db: db}
}

var _ FamiliesRepository = (*PostgresFamiliesRepository)(nil)

const familyColumns = `family_id::text, user_id::text, full_name, phone, city, state, created_at, updated_at`

func scanFamily(row interface{ Scan(...any) error }) (*domain.Family, error) {
	var f domain.Family
	if err := row.Scan(&f.FamilyID, &f.UserID, &f.FullName, &f.Phone, &f.City, &f.State, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PostgresFamiliesRepository) GetFamilyByUser(ctx context.Context, userID string) (*domain.Family, error) {
	query := `SELECT ` + familyColumns + ` FROM families WHERE user_id = $1`
	f, err := scanFamily(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("family not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return f, nil
}

func (r *PostgresFamiliesRepository) UpsertFamily(ctx context.Context, family *domain.Family) (*domain.Family, error) {
	if family == nil || family.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	query := `
		INSERT INTO families (user_id, full_name, phone, city, state)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			updated_at = now()
		RETURNING ` + familyColumns
	f, err := scanFamily(r.db.QueryRowContext(ctx, query,
		family.UserID, family.FullName, family.Phone, family.City, family.State))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert family: %w", err)
	}
	return f, nil
}

const patientColumns = `patient_id::text, family_id::text, first_name, last_name, date_of_birth,
	care_level, service_requirements, notes, created_at`

func scanPatient(row interface{ Scan(...any) error }) (*domain.Patient, error) {
	var p domain.Patient
	if err := row.Scan(&p.PatientID, &p.FamilyID, &p.FirstName, &p.LastName, &p.DateOfBirth,
		&p.CareLevel, &p.ServiceRequirements, &p.Notes, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresFamiliesRepository) GetPatient(ctx context.Context, patientID string) (*domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE patient_id = $1`
	p, err := scanPatient(r.db.QueryRowContext(ctx, query, patientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

func (r *PostgresFamiliesRepository) ListPatients(ctx context.Context, familyID string) ([]*domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE family_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	out := []*domain.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresFamiliesRepository) CreatePatient(ctx context.Context, patient *domain.Patient) (*domain.Patient, error) {
	return insertPatient(ctx, r.db, patient)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insertPatient shared with the onboarding finalize transaction.
func insertPatient(ctx context.Context, q queryRower, patient *domain.Patient) (*domain.Patient, error) {
	if patient == nil || patient.FamilyID == "" {
		return nil, fmt.Errorf("family_id is required")
	}
	reqs := patient.ServiceRequirements
	if reqs == nil {
		reqs = pq.StringArray{}
	}
	query := `
		INSERT INTO patients (family_id, first_name, last_name, date_of_birth, care_level, service_requirements, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + patientColumns
	p, err := scanPatient(q.QueryRowContext(ctx, query,
		patient.FamilyID, patient.FirstName, patient.LastName, patient.DateOfBirth,
		patient.CareLevel, reqs, patient.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return p, nil
}
