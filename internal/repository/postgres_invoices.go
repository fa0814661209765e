package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// PostgresInvoicesRepository invoices table
type PostgresInvoicesRepository struct {
	db *sql.DB
}

func NewPostgresInvoicesRepository(db *sql.DB) *PostgresInvoicesRepository {
	return &PostgresInvoicesRepository{db: db}
}

var _ InvoicesRepository = (*PostgresInvoicesRepository)(nil)

const invoiceColumns = `invoice_id::text, contract_id::text, agency_id::text, patient_id::text, family_id::text,
	status, currency, amount_subtotal, amount_tax, amount_total, due_date, lines, meta, created_at`

func scanInvoice(row interface{ Scan(...any) error }) (*domain.Invoice, error) {
	var (
		inv   domain.Invoice
		lines []byte
		meta  []byte
	)
	err := row.Scan(
		&inv.InvoiceID, &inv.ContractID, &inv.AgencyID, &inv.PatientID, &inv.FamilyID,
		&inv.Status, &inv.Currency, &inv.AmountSubtotal, &inv.AmountTax, &inv.AmountTotal,
		&inv.DueDate, &lines, &meta, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Lines = []domain.InvoiceLine{}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &inv.Lines); err != nil {
			return nil, fmt.Errorf("failed to decode invoice lines: %w", err)
		}
	}
	if len(meta) > 0 {
		inv.Meta = json.RawMessage(meta)
	}
	return &inv, nil
}

func (r *PostgresInvoicesRepository) CreateInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	if invoice == nil {
		return nil, fmt.Errorf("invoice is required")
	}
	lines := invoice.Lines
	if lines == nil {
		lines = []domain.InvoiceLine{}
	}
	linesJSON, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoice lines: %w", err)
	}

	query := `
		INSERT INTO invoices (
			contract_id, agency_id, patient_id, family_id, status, currency,
			amount_subtotal, amount_tax, amount_total, due_date, lines, meta
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12::jsonb)
		RETURNING ` + invoiceColumns
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query,
		invoice.ContractID, invoice.AgencyID, invoice.PatientID, invoice.FamilyID,
		string(invoice.Status), invoice.Currency,
		invoice.AmountSubtotal, invoice.AmountTax, invoice.AmountTotal, invoice.DueDate,
		string(linesJSON), string(jsonOrDefault(invoice.Meta, "{}"))))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return inv, nil
}

func (r *PostgresInvoicesRepository) ListInvoices(ctx context.Context, filter InvoicesFilter) ([]*domain.Invoice, error) {
	where := []string{}
	args := []any{}
	argIdx := 1

	if filter.AgencyID != "" {
		where = append(where, fmt.Sprintf("agency_id = $%d", argIdx))
		args = append(args, filter.AgencyID)
		argIdx++
	}
	if filter.FamilyID != "" {
		where = append(where, fmt.Sprintf("family_id = $%d", argIdx))
		args = append(args, filter.FamilyID)
		argIdx++
	}
	if len(where) == 0 {
		return nil, fmt.Errorf("agency_id or family_id is required")
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	out := []*domain.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
