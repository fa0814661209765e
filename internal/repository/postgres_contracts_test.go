package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

func setupMockContractsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresContractsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresContractsRepository(db)
}

var contractRowColumns = []string{
	"contract_id", "agency_id", "patient_id", "family_id", "status",
	"rate_minor", "billing_type", "payment_method", "start_date", "end_date", "notes",
	"sent_at", "accepted_at", "rejected_at", "created_at", "updated_at",
}

func TestTransitionForFamily_Accept(t *testing.T) {
	db, mock, repo := setupMockContractsDB(t)
	defer db.Close()

	contractID := uuid.New().String()
	familyID := uuid.New().String()
	agencyID := uuid.New().String()
	patientID := uuid.New().String()
	now := time.Now()

	rows := sqlmock.NewRows(contractRowColumns).AddRow(
		contractID, agencyID, patientID, familyID, "accepted",
		int64(3500), "hourly", "card", nil, nil, "",
		now, now, nil, now, now,
	)
	mock.ExpectQuery(`UPDATE contracts SET`).
		WithArgs(contractID, familyID, "accepted", pq.Array([]string{"sent", "under_review", "accepted"})).
		WillReturnRows(rows)

	c, err := repo.TransitionForFamily(context.Background(), contractID, familyID,
		domain.ContractTransitions[domain.ContractActionAccept])

	require.NoError(t, err)
	assert.Equal(t, domain.ContractStatusAccepted, c.Status)
	assert.Equal(t, int64(3500), c.RateMinor)
	require.NotNil(t, c.AcceptedAt)
	assert.Nil(t, c.RejectedAt)
	assert.Nil(t, c.StartDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionForFamily_ZeroRowsIsNotFound(t *testing.T) {
	db, mock, repo := setupMockContractsDB(t)
	defer db.Close()

	contractID := uuid.New().String()
	familyID := uuid.New().String()

	mock.ExpectQuery(`UPDATE contracts SET`).
		WithArgs(contractID, familyID, "rejected", pq.Array([]string{"sent", "under_review", "rejected"})).
		WillReturnError(sql.ErrNoRows)

	c, err := repo.TransitionForFamily(context.Background(), contractID, familyID,
		domain.ContractTransitions[domain.ContractActionDecline])

	assert.Nil(t, c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionForAgency_FiltersByAgency(t *testing.T) {
	db, mock, repo := setupMockContractsDB(t)
	defer db.Close()

	contractID := uuid.New().String()
	agencyID := uuid.New().String()
	now := time.Now()

	rows := sqlmock.NewRows(contractRowColumns).AddRow(
		contractID, agencyID, uuid.New().String(), uuid.New().String(), "sent",
		int64(0), "", "", nil, nil, "",
		now, nil, nil, now, now,
	)
	mock.ExpectQuery(`WHERE contract_id = \$1 AND agency_id = \$2`).
		WithArgs(contractID, agencyID, "sent", pq.Array([]string{"draft"})).
		WillReturnRows(rows)

	c, err := repo.TransitionForAgency(context.Background(), contractID, agencyID,
		domain.ContractTransitions[domain.ContractActionSend])

	require.NoError(t, err)
	assert.Equal(t, domain.ContractStatusSent, c.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransition_EmptyIDsSkipDatabase(t *testing.T) {
	db, mock, repo := setupMockContractsDB(t)
	defer db.Close()

	_, err := repo.TransitionForFamily(context.Background(), "", "fam", domain.ContractTransitions[domain.ContractActionAccept])
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListContracts_RequiresOwner(t *testing.T) {
	db, _, repo := setupMockContractsDB(t)
	defer db.Close()

	_, err := repo.ListContracts(context.Background(), ContractsFilter{})
	assert.Error(t, err)
}

func TestListContracts_WithStatus(t *testing.T) {
	db, mock, repo := setupMockContractsDB(t)
	defer db.Close()

	familyID := uuid.New().String()
	now := time.Now()
	rows := sqlmock.NewRows(contractRowColumns).AddRow(
		uuid.New().String(), uuid.New().String(), uuid.New().String(), familyID, "sent",
		int64(100), "", "", nil, nil, "",
		now, nil, nil, now, now,
	)
	mock.ExpectQuery(`FROM contracts WHERE family_id = \$1 AND status = \$2`).
		WithArgs(familyID, "sent").
		WillReturnRows(rows)

	list, err := repo.ListContracts(context.Background(), ContractsFilter{FamilyID: familyID, Status: domain.ContractStatusSent})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, familyID, list[0].FamilyID)
	require.NoError(t, mock.ExpectationsWereMet())
}
