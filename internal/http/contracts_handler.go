package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/service"
)

// ContractsHandler /contracts/*
type ContractsHandler struct {
	contracts *service.ContractService
	logger    *zap.Logger
}

func NewContractsHandler(contracts *service.ContractService, logger *zap.Logger) *ContractsHandler {
	return &ContractsHandler{contracts: contracts, logger: logger}
}

// contractActionBody agencyId is accepted but ignored; the agency comes from the contract row.
type contractActionBody struct {
	ID       string `json:"id"`
	AgencyID string `json:"agencyId"`
}

type contractAction func(ctx context.Context, req service.ContractActionRequest) (*domain.Contract, error)

func (h *ContractsHandler) run(w http.ResponseWriter, r *http.Request, action contractAction, full bool) {
	var body contractActionBody
	if !decodeBody(w, r, &body) {
		return
	}
	c, err := action(r.Context(), service.ContractActionRequest{Caller: callerFrom(r), ContractID: body.ID})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if full {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "contract": c})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Accept POST /contracts/accept
func (h *ContractsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.contracts.Accept, false)
}

// Decline POST /contracts/decline
func (h *ContractsHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.contracts.Decline, false)
}

// Review POST /contracts/review
func (h *ContractsHandler) Review(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.contracts.Review, true)
}

// Send POST /contracts/send
func (h *ContractsHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.contracts.Send, true)
}

type createContractBody struct {
	AgencyID      string `json:"agencyId"`
	PatientID     string `json:"patientId"`
	Rate          int64  `json:"rate"`
	BillingType   string `json:"billingType"`
	PaymentMethod string `json:"paymentMethod"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Notes         string `json:"notes"`
	Status        string `json:"status"`
}

// Create POST /contracts/create
func (h *ContractsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createContractBody
	if !decodeBody(w, r, &body) {
		return
	}
	start, err := parseDate("startDate", body.StartDate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	end, err := parseDate("endDate", body.EndDate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.contracts.Create(r.Context(), service.CreateContractRequest{
		Caller:        callerFrom(r),
		AgencyID:      body.AgencyID,
		PatientID:     body.PatientID,
		RateMinor:     body.Rate,
		BillingType:   body.BillingType,
		PaymentMethod: body.PaymentMethod,
		StartDate:     start,
		EndDate:       end,
		Notes:         body.Notes,
		Status:        domain.ContractStatus(body.Status),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contract": c})
}

// List GET /contracts?status=
func (h *ContractsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.contracts.List(r.Context(), callerFrom(r), domain.ContractStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contracts": list})
}
