package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/service"
)

// ProviderHandler /provider/*: the agency's own profile forms and publish toggling.
type ProviderHandler struct {
	provider *service.ProviderService
	logger   *zap.Logger
}

func NewProviderHandler(provider *service.ProviderService, logger *zap.Logger) *ProviderHandler {
	return &ProviderHandler{provider: provider, logger: logger}
}

// Profile GET /provider/profile
func (h *ProviderHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.provider.GetProfile(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveBusinessInfo PUT /provider/business-info
func (h *ProviderHandler) SaveBusinessInfo(w http.ResponseWriter, r *http.Request) {
	var body domain.BusinessInfo
	if !decodeBody(w, r, &body) {
		return
	}
	a, err := h.provider.SaveBusinessInfo(r.Context(), callerFrom(r), body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agency": a})
}

// SaveServices PUT /provider/services
func (h *ProviderHandler) SaveServices(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Services []domain.AgencyService `json:"services"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	h.ok(w, r, h.provider.SaveServices(r.Context(), callerFrom(r), body.Services))
}

// SaveStrengths PUT /provider/strengths
func (h *ProviderHandler) SaveStrengths(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Strengths []domain.AgencyStrength `json:"strengths"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	h.ok(w, r, h.provider.SaveStrengths(r.Context(), callerFrom(r), body.Strengths))
}

// SaveRates PUT /provider/rates
func (h *ProviderHandler) SaveRates(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rates []domain.AgencyRate `json:"rates"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	h.ok(w, r, h.provider.SaveRates(r.Context(), callerFrom(r), body.Rates))
}

// SaveServiceAreas PUT /provider/service-areas
func (h *ProviderHandler) SaveServiceAreas(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ServiceAreas []string `json:"serviceAreas"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	h.ok(w, r, h.provider.SaveServiceAreas(r.Context(), callerFrom(r), body.ServiceAreas))
}

func (h *ProviderHandler) ok(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Documents GET /provider/documents
func (h *ProviderHandler) Documents(w http.ResponseWriter, r *http.Request) {
	docs, err := h.provider.ListDocuments(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// Publish POST /provider/publish; the first unmet gate answers 400 {error, field}.
func (h *ProviderHandler) Publish(w http.ResponseWriter, r *http.Request) {
	a, err := h.provider.Publish(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agency": a})
}

// Unpublish POST /provider/unpublish
func (h *ProviderHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	a, err := h.provider.Unpublish(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agency": a})
}
