package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/service"
)

// InvoicesHandler /invoices/*
type InvoicesHandler struct {
	invoices *service.InvoiceService
	logger   *zap.Logger
}

func NewInvoicesHandler(invoices *service.InvoiceService, logger *zap.Logger) *InvoicesHandler {
	return &InvoicesHandler{invoices: invoices, logger: logger}
}

type createInvoiceBody struct {
	ContractID     string               `json:"contractId"`
	AgencyID       string               `json:"agencyId"`
	PatientID      string               `json:"patientId"`
	FamilyID       string               `json:"familyId"`
	Currency       string               `json:"currency"`
	AmountSubtotal int64                `json:"amountSubtotal"`
	AmountTax      int64                `json:"amountTax"`
	AmountTotal    int64                `json:"amountTotal"`
	DueDate        string               `json:"dueDate"`
	Lines          []domain.InvoiceLine `json:"lines"`
	Meta           json.RawMessage      `json:"meta"`
}

// Create POST /invoices/create
func (h *InvoicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createInvoiceBody
	if !decodeBody(w, r, &body) {
		return
	}
	due, err := parseDate("dueDate", body.DueDate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req := service.CreateInvoiceRequest{
		Caller:         callerFrom(r),
		ContractID:     body.ContractID,
		AgencyID:       body.AgencyID,
		PatientID:      body.PatientID,
		FamilyID:       body.FamilyID,
		Currency:       body.Currency,
		AmountSubtotal: body.AmountSubtotal,
		AmountTax:      body.AmountTax,
		AmountTotal:    body.AmountTotal,
		Lines:          body.Lines,
		Meta:           body.Meta,
	}
	if due != nil {
		req.DueDate = *due
	}

	inv, err := h.invoices.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": inv})
}

// List GET /invoices?status=
func (h *InvoicesHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.invoices.List(r.Context(), callerFrom(r), domain.InvoiceStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": list})
}

// Export GET /invoices/export (xlsx)
func (h *InvoicesHandler) Export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.invoices.ExportRows(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	data, err := GenerateInvoiceExport(rows)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("invoice export failed: %w", err))
		return
	}
	filename := fmt.Sprintf("invoices_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
