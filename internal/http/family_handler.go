package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/service"
)

// FamilyHandler /family/*
type FamilyHandler struct {
	families *service.FamilyService
	logger   *zap.Logger
}

func NewFamilyHandler(families *service.FamilyService, logger *zap.Logger) *FamilyHandler {
	return &FamilyHandler{families: families, logger: logger}
}

// Profile GET /family/profile
func (h *FamilyHandler) Profile(w http.ResponseWriter, r *http.Request) {
	f, err := h.families.GetProfile(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"family": f})
}

// UpdateProfile PUT /family/profile
func (h *FamilyHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName string `json:"fullName"`
		Phone    string `json:"phone"`
		City     string `json:"city"`
		State    string `json:"state"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	f, err := h.families.UpdateProfile(r.Context(), service.UpdateProfileRequest{
		Caller:   callerFrom(r),
		FullName: body.FullName,
		Phone:    body.Phone,
		City:     body.City,
		State:    body.State,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"family": f})
}

// Patients GET /family/patients
func (h *FamilyHandler) Patients(w http.ResponseWriter, r *http.Request) {
	list, err := h.families.ListPatients(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"patients": list})
}
