package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

const defaultCurrency = "usd"

// InvoiceService invoices issued against accepted contracts
type InvoiceService struct {
	invoices      repository.InvoicesRepository
	contracts     repository.ContractsRepository
	families      repository.FamiliesRepository
	agencies      repository.AgenciesRepository
	notifications *NotificationService
	logger        *zap.Logger
}

func NewInvoiceService(
	invoices repository.InvoicesRepository,
	contracts repository.ContractsRepository,
	families repository.FamiliesRepository,
	agencies repository.AgenciesRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices:      invoices,
		contracts:     contracts,
		families:      families,
		agencies:      agencies,
		notifications: notifications,
		logger:        logger,
	}
}

// CreateInvoiceRequest POST /invoices/create; amounts are integer minor units.
type CreateInvoiceRequest struct {
	Caller         Caller
	ContractID     string
	AgencyID       string
	PatientID      string
	FamilyID       string
	Currency       string
	AmountSubtotal int64
	AmountTax      int64
	AmountTotal    int64
	DueDate        time.Time
	Lines          []domain.InvoiceLine
	Meta           json.RawMessage
}

func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*domain.Invoice, error) {
	agency, err := agencyOf(ctx, s.agencies, req.Caller)
	if err != nil {
		return nil, err
	}
	if err := validateInvoiceRequest(&req); err != nil {
		return nil, err
	}
	if req.AgencyID != agency.AgencyID {
		return nil, fmt.Errorf("%w: agency does not belong to caller", ErrForbidden)
	}

	if !isUUID(req.ContractID) {
		return nil, fmt.Errorf("%w: contract not found", ErrNotFound)
	}
	contract, err := s.contracts.GetContract(ctx, req.ContractID)
	if err != nil {
		return nil, fromRepo(err)
	}
	if contract.AgencyID != agency.AgencyID {
		return nil, fmt.Errorf("%w: contract not found", ErrNotFound)
	}
	if contract.Status != domain.ContractStatusAccepted {
		return nil, invalid("contractId", "contract must be accepted before invoicing")
	}
	if contract.PatientID != req.PatientID {
		return nil, invalid("patientId", "patientId does not match the contract")
	}
	if contract.FamilyID != req.FamilyID {
		return nil, invalid("familyId", "familyId does not match the contract")
	}

	inv, err := s.invoices.CreateInvoice(ctx, &domain.Invoice{
		ContractID:     contract.ContractID,
		AgencyID:       contract.AgencyID,
		PatientID:      contract.PatientID,
		FamilyID:       contract.FamilyID,
		Status:         domain.InvoiceStatusOpen,
		Currency:       req.Currency,
		AmountSubtotal: req.AmountSubtotal,
		AmountTax:      req.AmountTax,
		AmountTotal:    req.AmountTotal,
		DueDate:        req.DueDate,
		Lines:          req.Lines,
		Meta:           req.Meta,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice created",
		zap.String("invoice_id", inv.InvoiceID),
		zap.String("contract_id", inv.ContractID),
		zap.Int64("amount_total", inv.AmountTotal),
	)
	s.notifications.Notify(ctx, &domain.Notification{
		Role:       domain.RoleFamily,
		FamilyID:   strPtr(inv.FamilyID),
		Title:      "New invoice",
		Body:       fmt.Sprintf("%s issued an invoice due %s.", agency.BusinessName, inv.DueDate.Format("2006-01-02")),
		Severity:   domain.SeverityInfo,
		ContractID: strPtr(inv.ContractID),
		PatientID:  strPtr(inv.PatientID),
	})
	return inv, nil
}

func validateInvoiceRequest(req *CreateInvoiceRequest) error {
	for _, f := range []struct{ field, value string }{
		{"contractId", req.ContractID},
		{"agencyId", req.AgencyID},
		{"patientId", req.PatientID},
		{"familyId", req.FamilyID},
	} {
		if strings.TrimSpace(f.value) == "" {
			return required(f.field)
		}
	}
	if req.DueDate.IsZero() {
		return required("dueDate")
	}
	if req.AmountSubtotal < 0 {
		return invalid("amountSubtotal", "amountSubtotal must not be negative")
	}
	if req.AmountTax < 0 {
		return invalid("amountTax", "amountTax must not be negative")
	}
	if req.AmountTotal < 0 {
		return invalid("amountTotal", "amountTotal must not be negative")
	}
	if req.AmountTax > math.MaxInt64-req.AmountSubtotal {
		return invalid("amountTotal", "amountSubtotal + amountTax is out of range")
	}
	if req.AmountTotal != req.AmountSubtotal+req.AmountTax {
		return invalid("amountTotal", "amountTotal must equal amountSubtotal + amountTax")
	}

	var linesSum int64
	for i, l := range req.Lines {
		if strings.TrimSpace(l.Description) == "" {
			return invalid("lines", fmt.Sprintf("line %d: description is required", i+1))
		}
		if l.Quantity <= 0 || l.UnitAmount < 0 || l.Amount < 0 {
			return invalid("lines", fmt.Sprintf("line %d: quantity must be positive and amounts non-negative", i+1))
		}
		if l.Amount > math.MaxInt64-linesSum {
			return invalid("lines", "line amounts are out of range")
		}
		linesSum += l.Amount
	}
	if len(req.Lines) > 0 && linesSum != req.AmountSubtotal {
		return invalid("lines", "line amounts must add up to amountSubtotal")
	}

	req.Currency = strings.ToLower(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = defaultCurrency
	}
	if len(req.Meta) > 0 && !json.Valid(req.Meta) {
		return invalid("meta", "meta must be a JSON object")
	}
	return nil
}

// List the caller's invoices (family or agency side).
func (s *InvoiceService) List(ctx context.Context, c Caller, status domain.InvoiceStatus) ([]*domain.Invoice, error) {
	filter := repository.InvoicesFilter{Status: status}
	switch c.Role {
	case domain.RoleFamily:
		f, err := familyOf(ctx, s.families, c)
		if err != nil {
			return nil, err
		}
		filter.FamilyID = f.FamilyID
	case domain.RoleProvider:
		a, err := agencyOf(ctx, s.agencies, c)
		if err != nil {
			return nil, err
		}
		filter.AgencyID = a.AgencyID
	default:
		if c.AccountID == "" {
			return nil, ErrUnauthenticated
		}
		return nil, ErrForbidden
	}
	return s.invoices.ListInvoices(ctx, filter)
}

// ExportRows provider-side invoice list for the spreadsheet export.
func (s *InvoiceService) ExportRows(ctx context.Context, c Caller) ([]*domain.Invoice, error) {
	if err := c.check(domain.RoleProvider); err != nil {
		return nil, err
	}
	return s.List(ctx, c, "")
}
