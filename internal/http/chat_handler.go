package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/service"
)

// ChatHandler /chat/*
type ChatHandler struct {
	chat   *service.ChatService
	logger *zap.Logger
}

func NewChatHandler(chat *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// Invite POST /chat/invite {agencyId, message}
func (h *ChatHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AgencyID string `json:"agencyId"`
		Message  string `json:"message"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	resp, err := h.chat.Invite(r.Context(), service.InviteRequest{
		Caller:   callerFrom(r),
		AgencyID: body.AgencyID,
		Message:  body.Message,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Channel POST /chat/channel {careMatchId}
func (h *ChatHandler) Channel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CareMatchID string `json:"careMatchId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	resp, err := h.chat.OpenMatchChannel(r.Context(), service.MatchChannelRequest{
		Caller:      callerFrom(r),
		CareMatchID: body.CareMatchID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Channels GET /chat/channels
func (h *ChatHandler) Channels(w http.ResponseWriter, r *http.Request) {
	list, err := h.chat.ListChannels(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": list})
}

// ProviderToken POST /chat/token
func (h *ChatHandler) ProviderToken(w http.ResponseWriter, r *http.Request) {
	resp, err := h.chat.ProviderToken(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// FamilyToken POST /chat/family-token
func (h *ChatHandler) FamilyToken(w http.ResponseWriter, r *http.Request) {
	resp, err := h.chat.FamilyToken(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
