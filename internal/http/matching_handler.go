package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/service"
)

// MatchingHandler /matching/*
type MatchingHandler struct {
	matching *service.MatchingService
	logger   *zap.Logger
}

func NewMatchingHandler(matching *service.MatchingService, logger *zap.Logger) *MatchingHandler {
	return &MatchingHandler{matching: matching, logger: logger}
}

// List GET /matching/list?patientId=&offset=&limit=
func (h *MatchingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.matching.List(r.Context(), service.ListMatchesRequest{
		Caller:    callerFrom(r),
		PatientID: q.Get("patientId"),
		Offset:    parseInt(q.Get("offset"), 0),
		Limit:     parseInt(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Check GET /matching/check?patientId=
func (h *MatchingHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp, err := h.matching.Check(r.Context(), callerFrom(r), r.URL.Query().Get("patientId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
