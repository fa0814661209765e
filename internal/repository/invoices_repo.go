package repository

import (
	"context"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// InvoicesRepository invoices table
type InvoicesRepository interface {
	CreateInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, filter InvoicesFilter) ([]*domain.Invoice, error)
}

// InvoicesFilter at least one of AgencyID / FamilyID is required
type InvoicesFilter struct {
	AgencyID string
	FamilyID string
	Status   domain.InvoiceStatus // optional
}
