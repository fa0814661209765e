package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionRowColumns = []string{
	"session_id", "family_id", "patient_id", "current_step", "step_data",
	"completed_at", "created_at", "updated_at",
}

func TestSaveStep_MergesUnderKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresOnboardingSessionsRepository(db)

	sessionID := uuid.New().String()
	familyID := uuid.New().String()
	now := time.Now()

	mock.ExpectQuery(`step_data = step_data \|\| jsonb_build_object`).
		WithArgs(sessionID, familyID, 3, "step_3", `{"mobility":"walker"}`).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).AddRow(
			sessionID, familyID, nil, 3, []byte(`{"step_1":{},"step_3":{"mobility":"walker"}}`),
			nil, now, now,
		))

	s, err := repo.SaveStep(context.Background(), sessionID, familyID, 3, "step_3", json.RawMessage(`{"mobility":"walker"}`))
	require.NoError(t, err)
	assert.Equal(t, 3, s.CurrentStep)
	assert.JSONEq(t, `{"step_1":{},"step_3":{"mobility":"walker"}}`, string(s.StepData))
	assert.Nil(t, s.PatientID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveStep_CompletedSessionConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresOnboardingSessionsRepository(db)

	sessionID := uuid.New().String()
	familyID := uuid.New().String()
	patientID := uuid.New().String()
	now := time.Now()

	mock.ExpectQuery(`UPDATE onboarding_sessions SET`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM onboarding_sessions WHERE session_id = \$1 AND family_id = \$2`).
		WithArgs(sessionID, familyID).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).AddRow(
			sessionID, familyID, patientID, 7, []byte(`{}`), now, now, now,
		))

	_, err = repo.SaveStep(context.Background(), sessionID, familyID, 2, "step_2", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSessionCascade_RemovesDependentsFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresOnboardingSessionsRepository(db)

	sessionID := uuid.New().String()
	familyID := uuid.New().String()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(sessionID, familyID).
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}).AddRow(sessionID))
	for _, table := range sessionChildTables {
		mock.ExpectExec(`DELETE FROM ` + table).WithArgs(sessionID).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`DELETE FROM onboarding_sessions`).WithArgs(sessionID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteSessionCascade(context.Background(), sessionID, familyID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSessionCascade_OtherFamilyRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresOnboardingSessionsRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err = repo.DeleteSessionCascade(context.Background(), "s1", "other-family")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
