package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// PostgresContractsRepository contracts table
type PostgresContractsRepository struct {
	db *sql.DB
}

func NewPostgresContractsRepository(db *sql.DB) *PostgresContractsRepository {
	return &PostgresContractsRepository{db: db}
}

var _ ContractsRepository = (*PostgresContractsRepository)(nil)

const contractColumns = `contract_id::text, agency_id::text, patient_id::text, family_id::text, status,
	rate_minor, billing_type, payment_method, start_date, end_date, notes,
	sent_at, accepted_at, rejected_at, created_at, updated_at`

func scanContract(row interface{ Scan(...any) error }) (*domain.Contract, error) {
	var c domain.Contract
	err := row.Scan(
		&c.ContractID, &c.AgencyID, &c.PatientID, &c.FamilyID, &c.Status,
		&c.RateMinor, &c.BillingType, &c.PaymentMethod, &c.StartDate, &c.EndDate, &c.Notes,
		&c.SentAt, &c.AcceptedAt, &c.RejectedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresContractsRepository) CreateContract(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	if contract == nil {
		return nil, fmt.Errorf("contract is required")
	}
	status := contract.Status
	if status == "" {
		status = domain.ContractStatusDraft
	}
	query := `
		INSERT INTO contracts (
			agency_id, patient_id, family_id, status, rate_minor, billing_type,
			payment_method, start_date, end_date, notes, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			CASE WHEN $4::text = 'sent' THEN now() END)
		RETURNING ` + contractColumns
	c, err := scanContract(r.db.QueryRowContext(ctx, query,
		contract.AgencyID, contract.PatientID, contract.FamilyID, string(status),
		contract.RateMinor, contract.BillingType, contract.PaymentMethod,
		contract.StartDate, contract.EndDate, contract.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}
	return c, nil
}

func (r *PostgresContractsRepository) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE contract_id = $1`
	c, err := scanContract(r.db.QueryRowContext(ctx, query, contractID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contract not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return c, nil
}

func (r *PostgresContractsRepository) TransitionForFamily(ctx context.Context, contractID, familyID string, t domain.ContractTransition) (*domain.Contract, error) {
	return r.transition(ctx, "family_id", contractID, familyID, t)
}

func (r *PostgresContractsRepository) TransitionForAgency(ctx context.Context, contractID, agencyID string, t domain.ContractTransition) (*domain.Contract, error) {
	return r.transition(ctx, "agency_id", contractID, agencyID, t)
}

// transition is a single conditional UPDATE: ownership and the allowed source statuses are
// part of the predicate, so a concurrent writer cannot slip a contract out of sequence.
func (r *PostgresContractsRepository) transition(ctx context.Context, ownerColumn, contractID, ownerID string, t domain.ContractTransition) (*domain.Contract, error) {
	if contractID == "" || ownerID == "" {
		return nil, fmt.Errorf("contract not found: %w", ErrNotFound)
	}
	from := make([]string, 0, len(t.From))
	for _, s := range t.From {
		from = append(from, string(s))
	}

	query := `
		UPDATE contracts SET
			status = $3::text,
			sent_at = CASE WHEN $3::text = 'sent' THEN COALESCE(sent_at, now()) ELSE sent_at END,
			accepted_at = CASE WHEN $3::text = 'accepted' THEN COALESCE(accepted_at, now()) ELSE accepted_at END,
			rejected_at = CASE WHEN $3::text = 'rejected' THEN COALESCE(rejected_at, now()) ELSE rejected_at END,
			updated_at = now()
		WHERE contract_id = $1 AND ` + ownerColumn + ` = $2 AND status = ANY($4::text[])
		RETURNING ` + contractColumns

	c, err := scanContract(r.db.QueryRowContext(ctx, query, contractID, ownerID, string(t.To), pq.Array(from)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contract not found or not in an allowed status: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to transition contract: %w", err)
	}
	return c, nil
}

func (r *PostgresContractsRepository) ListContracts(ctx context.Context, filter ContractsFilter) ([]*domain.Contract, error) {
	where := []string{}
	args := []any{}
	argIdx := 1

	if filter.FamilyID != "" {
		where = append(where, fmt.Sprintf("family_id = $%d", argIdx))
		args = append(args, filter.FamilyID)
		argIdx++
	}
	if filter.AgencyID != "" {
		where = append(where, fmt.Sprintf("agency_id = $%d", argIdx))
		args = append(args, filter.AgencyID)
		argIdx++
	}
	if len(where) == 0 {
		return nil, fmt.Errorf("family_id or agency_id is required")
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + contractColumns + ` FROM contracts WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	out := []*domain.Contract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
