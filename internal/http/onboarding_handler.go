package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/service"
)

// OnboardingHandler provider completion check and the family patient wizard.
type OnboardingHandler struct {
	provider *service.ProviderOnboardingService
	patients *service.PatientOnboardingService
	logger   *zap.Logger
}

func NewOnboardingHandler(provider *service.ProviderOnboardingService, patients *service.PatientOnboardingService, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{provider: provider, patients: patients, logger: logger}
}

// Check POST /onboarding/check
func (h *OnboardingHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp, err := h.provider.Check(r.Context(), service.CheckOnboardingRequest{AccountID: callerFrom(r).AccountID})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type sessionBody struct {
	SessionID string          `json:"sessionId"`
	Step      int             `json:"step"`
	Data      json.RawMessage `json:"data"`
}

// StartPatient POST /onboarding/patient/start
func (h *OnboardingHandler) StartPatient(w http.ResponseWriter, r *http.Request) {
	s, err := h.patients.Start(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": s})
}

// SaveStep POST /onboarding/patient/save-step
func (h *OnboardingHandler) SaveStep(w http.ResponseWriter, r *http.Request) {
	var body sessionBody
	if !decodeBody(w, r, &body) {
		return
	}
	s, err := h.patients.SaveStep(r.Context(), service.SaveStepRequest{
		Caller:    callerFrom(r),
		SessionID: body.SessionID,
		Step:      body.Step,
		Data:      body.Data,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": s})
}

// FinalizePatient POST /onboarding/patient/finalize
func (h *OnboardingHandler) FinalizePatient(w http.ResponseWriter, r *http.Request) {
	var body sessionBody
	if !decodeBody(w, r, &body) {
		return
	}
	resp, err := h.patients.Finalize(r.Context(), callerFrom(r), body.SessionID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CancelPatient POST /onboarding/patient/cancel
func (h *OnboardingHandler) CancelPatient(w http.ResponseWriter, r *http.Request) {
	var body sessionBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := h.patients.Cancel(r.Context(), callerFrom(r), body.SessionID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
