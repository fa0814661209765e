package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/service"
)

// NotificationsHandler /notifications/*
type NotificationsHandler struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

func NewNotificationsHandler(notifications *service.NotificationService, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications, logger: logger}
}

type createNotificationBody struct {
	Role       string `json:"role"`
	AgencyID   string `json:"agencyId"`
	FamilyID   string `json:"familyId"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Severity   string `json:"severity"`
	ContractID string `json:"contractId"`
	PatientID  string `json:"patientId"`
}

// Create POST /notifications/create
func (h *NotificationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createNotificationBody
	if !decodeBody(w, r, &body) {
		return
	}
	n, err := h.notifications.Create(r.Context(), service.CreateNotificationRequest{
		Role:       domain.Role(body.Role),
		AgencyID:   body.AgencyID,
		FamilyID:   body.FamilyID,
		Title:      body.Title,
		Body:       body.Body,
		Severity:   domain.Severity(body.Severity),
		ContractID: body.ContractID,
		PatientID:  body.PatientID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notification": n})
}

// List GET /notifications?unread=true&limit=
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.notifications.List(r.Context(), service.ListNotificationsRequest{
		Caller:     callerFrom(r),
		UnreadOnly: q.Get("unread") == "true",
		Limit:      parseInt(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

// MarkRead POST /notifications/read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	n, err := h.notifications.MarkRead(r.Context(), service.MarkReadRequest{Caller: callerFrom(r), IDs: body.IDs})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}
