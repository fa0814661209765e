package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

func acceptedContract(t *testing.T, f *fixture) *domain.Contract {
	t.Helper()
	ctx := context.Background()
	contracts := newContractService(f)
	c, err := contracts.Create(ctx, CreateContractRequest{Caller: f.provUser, PatientID: f.patient.PatientID, Status: domain.ContractStatusSent})
	require.NoError(t, err)
	c, err = contracts.Accept(ctx, ContractActionRequest{Caller: f.famUser, ContractID: c.ContractID})
	require.NoError(t, err)
	return c
}

func invoiceRequest(f *fixture, c *domain.Contract) CreateInvoiceRequest {
	return CreateInvoiceRequest{
		Caller:         f.provUser,
		ContractID:     c.ContractID,
		AgencyID:       c.AgencyID,
		PatientID:      c.PatientID,
		FamilyID:       c.FamilyID,
		AmountSubtotal: 10000,
		AmountTax:      800,
		AmountTotal:    10800,
		DueDate:        time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		Lines: []domain.InvoiceLine{
			{Description: "Home visits", Quantity: 4, UnitAmount: 2500, Amount: 10000},
		},
	}
}

func TestInvoiceService_CreateOpensInvoiceAndNotifiesFamily(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := acceptedContract(t, f)
	svc := NewInvoiceService(f.store, f.store, f.store, f.store, f.notifications(), f.logger)

	inv, err := svc.Create(ctx, invoiceRequest(f, c))
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusOpen, inv.Status)
	assert.Equal(t, "usd", inv.Currency)

	var titles []string
	for _, n := range familyInbox(t, f) {
		titles = append(titles, n.Title)
	}
	assert.Contains(t, titles, "New invoice")

	famList, err := svc.List(ctx, f.famUser, "")
	require.NoError(t, err)
	assert.Len(t, famList, 1)

	rows, err := svc.ExportRows(ctx, f.provUser)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	_, err = svc.ExportRows(ctx, f.famUser)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestInvoiceService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := acceptedContract(t, f)
	svc := NewInvoiceService(f.store, f.store, f.store, f.store, f.notifications(), f.logger)

	cases := []struct {
		name   string
		mutate func(r *CreateInvoiceRequest)
		field  string
	}{
		{"missing due date", func(r *CreateInvoiceRequest) { r.DueDate = time.Time{} }, "dueDate"},
		{"negative tax", func(r *CreateInvoiceRequest) { r.AmountTax = -1 }, "amountTax"},
		{"total mismatch", func(r *CreateInvoiceRequest) { r.AmountTotal = 1 }, "amountTotal"},
		{"lines do not add up", func(r *CreateInvoiceRequest) { r.Lines[0].Amount = 9000 }, "lines"},
		{"patient mismatch", func(r *CreateInvoiceRequest) { r.PatientID = "someone-else" }, "patientId"},
		{"missing contract", func(r *CreateInvoiceRequest) { r.ContractID = "" }, "contractId"},
		{"all ids missing reports contract first", func(r *CreateInvoiceRequest) {
			r.ContractID, r.AgencyID, r.PatientID, r.FamilyID = "", "", "", ""
		}, "contractId"},
		{"negative total", func(r *CreateInvoiceRequest) {
			r.AmountSubtotal, r.AmountTax, r.AmountTotal, r.Lines = 0, 0, -1, nil
		}, "amountTotal"},
		{"subtotal plus tax overflows", func(r *CreateInvoiceRequest) {
			r.AmountSubtotal, r.AmountTax, r.AmountTotal, r.Lines = math.MaxInt64, 1, math.MinInt64, nil
		}, "amountTotal"},
		{"line amounts overflow", func(r *CreateInvoiceRequest) {
			r.AmountSubtotal, r.AmountTax, r.AmountTotal = 1, 0, 1
			r.Lines = []domain.InvoiceLine{
				{Description: "Care", Quantity: 1, UnitAmount: math.MaxInt64, Amount: math.MaxInt64},
				{Description: "Extra", Quantity: 1, UnitAmount: 2, Amount: 2},
			}
		}, "lines"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := invoiceRequest(f, c)
			req.Lines = append([]domain.InvoiceLine(nil), req.Lines...)
			tc.mutate(&req)
			_, err := svc.Create(ctx, req)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestInvoiceService_RequiresAcceptedContract(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	contracts := newContractService(f)
	c, err := contracts.Create(ctx, CreateContractRequest{Caller: f.provUser, PatientID: f.patient.PatientID, Status: domain.ContractStatusSent})
	require.NoError(t, err)

	svc := NewInvoiceService(f.store, f.store, f.store, f.store, f.notifications(), f.logger)
	_, err = svc.Create(ctx, invoiceRequest(f, c))
	requireField(t, err, "contractId", "contract must be accepted before invoicing")
}

func TestInvoiceService_UnknownContract(t *testing.T) {
	f := newFixture(t)
	c := acceptedContract(t, f)
	svc := NewInvoiceService(f.store, f.store, f.store, f.store, f.notifications(), f.logger)

	req := invoiceRequest(f, c)
	req.ContractID = "missing"
	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotFound)
}
