package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// PostgresOnboardingSessionsRepository onboarding_sessions and dependent tables
type PostgresOnboardingSessionsRepository struct {
	db *sql.DB
}

func NewPostgresOnboardingSessionsRepository(db *sql.DB) *PostgresOnboardingSessionsRepository {
	return &PostgresOnboardingSessionsRepository{db: db}
}

var _ OnboardingSessionsRepository = (*PostgresOnboardingSessionsRepository)(nil)

const sessionColumns = `session_id::text, family_id::text, patient_id::text, current_step, step_data,
	completed_at, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*domain.OnboardingSession, error) {
	var (
		s        domain.OnboardingSession
		stepData []byte
	)
	err := row.Scan(&s.SessionID, &s.FamilyID, &s.PatientID, &s.CurrentStep, &stepData,
		&s.CompletedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.StepData = json.RawMessage(jsonOrDefault(stepData, "{}"))
	return &s, nil
}

func sessionNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("onboarding session not found: %w", ErrNotFound)
	}
	return fmt.Errorf("failed to get onboarding session: %w", err)
}

func (r *PostgresOnboardingSessionsRepository) GetActiveSession(ctx context.Context, familyID string) (*domain.OnboardingSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM onboarding_sessions WHERE family_id = $1 AND completed_at IS NULL`, familyID))
	if err != nil {
		return nil, sessionNotFound(err)
	}
	return s, nil
}

func (r *PostgresOnboardingSessionsRepository) GetSession(ctx context.Context, sessionID, familyID string) (*domain.OnboardingSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM onboarding_sessions WHERE session_id = $1 AND family_id = $2`, sessionID, familyID))
	if err != nil {
		return nil, sessionNotFound(err)
	}
	return s, nil
}

func (r *PostgresOnboardingSessionsRepository) CreateSession(ctx context.Context, familyID string) (*domain.OnboardingSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `
		INSERT INTO onboarding_sessions (family_id)
		VALUES ($1)
		ON CONFLICT (family_id) WHERE completed_at IS NULL DO NOTHING
		RETURNING `+sessionColumns, familyID))
	if err == nil {
		return s, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return r.GetActiveSession(ctx, familyID)
	}
	return nil, fmt.Errorf("failed to create onboarding session: %w", err)
}

func (r *PostgresOnboardingSessionsRepository) SaveStep(ctx context.Context, sessionID, familyID string, step int, key string, data json.RawMessage) (*domain.OnboardingSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `
		UPDATE onboarding_sessions SET
			step_data = step_data || jsonb_build_object($4::text, $5::jsonb),
			current_step = $3,
			updated_at = now()
		WHERE session_id = $1 AND family_id = $2 AND completed_at IS NULL
		RETURNING `+sessionColumns,
		sessionID, familyID, step, key, string(jsonOrDefault(data, "{}"))))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to save onboarding step: %w", err)
	}
	// distinguish "completed" from "missing"
	existing, gerr := r.GetSession(ctx, sessionID, familyID)
	if gerr != nil {
		return nil, gerr
	}
	if existing.Completed() {
		return nil, fmt.Errorf("onboarding session already completed: %w", ErrConflict)
	}
	return nil, fmt.Errorf("onboarding session not updated: %w", ErrNotFound)
}

func (r *PostgresOnboardingSessionsRepository) FinalizeSession(ctx context.Context, sessionID, familyID string, patient *domain.Patient) (*domain.OnboardingSession, *domain.Patient, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanSession(tx.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM onboarding_sessions WHERE session_id = $1 AND family_id = $2 FOR UPDATE`,
		sessionID, familyID))
	if err != nil {
		return nil, nil, sessionNotFound(err)
	}
	if current.Completed() {
		return nil, nil, fmt.Errorf("onboarding session already completed: %w", ErrConflict)
	}

	patient.FamilyID = familyID
	created, err := insertPatient(ctx, tx, patient)
	if err != nil {
		return nil, nil, err
	}

	s, err := scanSession(tx.QueryRowContext(ctx, `
		UPDATE onboarding_sessions SET
			patient_id = $2,
			current_step = $3,
			completed_at = now(),
			updated_at = now()
		WHERE session_id = $1
		RETURNING `+sessionColumns, sessionID, created.PatientID, domain.OnboardingLastStep))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to complete onboarding session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit onboarding finalize: %w", err)
	}
	return s, created, nil
}

func (r *PostgresOnboardingSessionsRepository) ListFiles(ctx context.Context, sessionID string) ([]domain.OnboardingFile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT file_id::text, session_id::text, storage_path, file_name, created_at
		FROM onboarding_files
		WHERE session_id = $1
		ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list onboarding files: %w", err)
	}
	defer rows.Close()

	out := []domain.OnboardingFile{}
	for rows.Next() {
		var f domain.OnboardingFile
		if err := rows.Scan(&f.FileID, &f.SessionID, &f.StoragePath, &f.FileName, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan onboarding file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// sessionChildTables dependents removed before the session row itself, in order.
var sessionChildTables = []string{
	"onboarding_conversations",
	"onboarding_analyses",
	"care_preferences",
	"onboarding_files",
}

func (r *PostgresOnboardingSessionsRepository) DeleteSessionCascade(ctx context.Context, sessionID, familyID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	err = tx.QueryRowContext(ctx,
		`SELECT session_id::text FROM onboarding_sessions WHERE session_id = $1 AND family_id = $2 FOR UPDATE`,
		sessionID, familyID).Scan(&locked)
	if err != nil {
		return sessionNotFound(err)
	}

	for _, table := range sessionChildTables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM onboarding_sessions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete onboarding session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit onboarding cancel: %w", err)
	}
	return nil
}
