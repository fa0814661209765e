package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

// ChatUserIDForAgency external chat user id of an agency.
func ChatUserIDForAgency(agencyID string) string { return "agency_" + agencyID }

// ChatUserIDForFamily external chat user id of a family.
func ChatUserIDForFamily(familyID string) string { return "family_" + familyID }

// shortID first eight characters of id with dashes removed.
func shortID(id string) string {
	s := strings.ReplaceAll(id, "-", "")
	if len(s) > 8 {
		s = s[:8]
	}
	return s
}

// InvitationChannelID deterministic per (agency, family) pair.
func InvitationChannelID(agencyID, familyID string) string {
	return "inv_" + shortID(agencyID) + "_" + shortID(familyID)
}

// MatchedChannelID deterministic per (agency, family) pair of a care match.
func MatchedChannelID(agencyID, familyID string) string {
	return "match_" + shortID(agencyID) + "_" + shortID(familyID)
}

// ChatService bridges marketplace ids onto the managed chat service and mirrors channels.
type ChatService struct {
	chat     ChatProvider // nil when credentials are missing
	channels repository.ChatChannelsRepository
	families repository.FamiliesRepository
	agencies repository.AgenciesRepository
	matches  repository.MatchesRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewChatService(
	chat ChatProvider,
	channels repository.ChatChannelsRepository,
	families repository.FamiliesRepository,
	agencies repository.AgenciesRepository,
	matches repository.MatchesRepository,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		chat:     chat,
		channels: channels,
		families: families,
		agencies: agencies,
		matches:  matches,
		logger:   logger,
		now:      time.Now,
	}
}

type ChannelResponse struct {
	ChannelID string `json:"channelId"`
	Created   bool   `json:"created"`
}

// InviteRequest POST /chat/invite
type InviteRequest struct {
	Caller   Caller
	AgencyID string
	Message  string
}

// Invite opens (or reuses) the family's pre-match channel with an agency and posts Message.
func (s *ChatService) Invite(ctx context.Context, req InviteRequest) (*ChannelResponse, error) {
	if err := lookupID("agencyId", req.AgencyID); err != nil {
		return nil, err
	}
	family, err := familyOf(ctx, s.families, req.Caller)
	if err != nil {
		return nil, err
	}
	agency, err := s.agencies.GetAgency(ctx, req.AgencyID)
	if err != nil {
		return nil, fromRepo(err)
	}
	if s.chat == nil {
		return nil, ErrChatNotConfigured
	}
	familyUser := ChatUserIDForFamily(family.FamilyID)
	agencyUser := ChatUserIDForAgency(agency.AgencyID)

	existing, err := s.channels.FindInvitationChannel(ctx, agency.AgencyID, family.FamilyID)
	if err == nil {
		if err := s.post(ctx, existing.ExternalChannelID, existing, familyUser, req.Message); err != nil {
			return nil, err
		}
		return &ChannelResponse{ChannelID: existing.ExternalChannelID}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	channelID := InvitationChannelID(agency.AgencyID, family.FamilyID)
	members := []ChatUser{newChatUser(familyUser, family.FullName), newChatUser(agencyUser, agency.BusinessName)}
	data := map[string]any{
		"channel_type": string(domain.ChatChannelInvitation),
		"agency_id":    agency.AgencyID,
		"family_id":    family.FamilyID,
	}
	if err := s.openExternal(ctx, channelID, familyUser, members, data); err != nil {
		return nil, err
	}
	mirror := s.mirror(ctx, &domain.ChatChannel{
		ExternalChannelID: channelID,
		ChannelType:       domain.ChatChannelInvitation,
		AgencyID:          agency.AgencyID,
		FamilyID:          family.FamilyID,
	})
	if mirror != nil {
		// another request may have mirrored the pair first
		channelID = mirror.ExternalChannelID
	}
	if err := s.post(ctx, channelID, mirror, familyUser, req.Message); err != nil {
		return nil, err
	}
	return &ChannelResponse{ChannelID: channelID, Created: true}, nil
}

// MatchChannelRequest POST /chat/channel
type MatchChannelRequest struct {
	Caller      Caller
	CareMatchID string
}

// OpenMatchChannel either party of a care match may open its channel.
func (s *ChatService) OpenMatchChannel(ctx context.Context, req MatchChannelRequest) (*ChannelResponse, error) {
	if err := lookupID("careMatchId", req.CareMatchID); err != nil {
		return nil, err
	}
	match, err := s.matches.GetMatch(ctx, req.CareMatchID)
	if err != nil {
		return nil, fromRepo(err)
	}
	patient, err := s.families.GetPatient(ctx, match.PatientID)
	if err != nil {
		return nil, fromRepo(err)
	}
	if err := s.requireParty(ctx, req.Caller, match.AgencyID, patient.FamilyID); err != nil {
		return nil, err
	}

	existing, err := s.channels.FindMatchedChannel(ctx, match.MatchID)
	if err == nil {
		return &ChannelResponse{ChannelID: existing.ExternalChannelID}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	// another match of the same pair may already have opened the shared channel
	channelID := MatchedChannelID(match.AgencyID, patient.FamilyID)
	existing, err = s.channels.FindChannelByExternalID(ctx, channelID)
	if err == nil {
		return &ChannelResponse{ChannelID: existing.ExternalChannelID}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if s.chat == nil {
		return nil, ErrChatNotConfigured
	}

	agency, err := s.agencies.GetAgency(ctx, match.AgencyID)
	if err != nil {
		return nil, fromRepo(err)
	}
	familyUser := ChatUserIDForFamily(patient.FamilyID)
	agencyUser := ChatUserIDForAgency(match.AgencyID)
	createdBy := familyUser
	if req.Caller.Role == domain.RoleProvider {
		createdBy = agencyUser
	}

	members := []ChatUser{newChatUser(familyUser, ""), newChatUser(agencyUser, agency.BusinessName)}
	data := map[string]any{
		"channel_type":  string(domain.ChatChannelMatched),
		"care_match_id": match.MatchID,
		"agency_id":     match.AgencyID,
		"family_id":     patient.FamilyID,
	}
	if err := s.openExternal(ctx, channelID, createdBy, members, data); err != nil {
		return nil, err
	}
	matchID := match.MatchID
	mirror := s.mirror(ctx, &domain.ChatChannel{
		ExternalChannelID: channelID,
		ChannelType:       domain.ChatChannelMatched,
		CareMatchID:       &matchID,
		AgencyID:          match.AgencyID,
		FamilyID:          patient.FamilyID,
	})
	if mirror != nil && (mirror.ExternalChannelID != channelID || mirror.CareMatchID == nil || *mirror.CareMatchID != matchID) {
		return &ChannelResponse{ChannelID: mirror.ExternalChannelID}, nil
	}
	return &ChannelResponse{ChannelID: channelID, Created: true}, nil
}

func (s *ChatService) requireParty(ctx context.Context, c Caller, agencyID, familyID string) error {
	switch c.Role {
	case domain.RoleFamily:
		f, err := familyOf(ctx, s.families, c)
		if err != nil {
			return err
		}
		if f.FamilyID == familyID {
			return nil
		}
	case domain.RoleProvider:
		a, err := agencyOf(ctx, s.agencies, c)
		if err != nil {
			return err
		}
		if a.AgencyID == agencyID {
			return nil
		}
	default:
		if c.AccountID == "" {
			return ErrUnauthenticated
		}
	}
	return fmt.Errorf("%w: care match not found", ErrNotFound)
}

// openExternal upserts the members and creates the channel on the chat service.
func (s *ChatService) openExternal(ctx context.Context, channelID, createdBy string, members []ChatUser, data map[string]any) error {
	if err := s.chat.UpsertUsers(ctx, members...); err != nil {
		return err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return s.chat.CreateChannel(ctx, channelID, createdBy, ids, data)
}

// mirror records the external channel locally. A failed insert leaves the external channel
// without a mirror row; it is logged and the request carries on.
func (s *ChatService) mirror(ctx context.Context, ch *domain.ChatChannel) *domain.ChatChannel {
	saved, _, err := s.channels.InsertChannelIfAbsent(ctx, ch)
	if err != nil {
		s.logger.Error("Chat channel mirror insert failed",
			zap.String("channel_id", ch.ExternalChannelID),
			zap.String("agency_id", ch.AgencyID),
			zap.String("family_id", ch.FamilyID),
			zap.Error(err),
		)
		return nil
	}
	return saved
}

// post appends message to the channel when non-empty. mirror may be nil.
func (s *ChatService) post(ctx context.Context, channelID string, mirror *domain.ChatChannel, userID, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	if err := s.chat.SendMessage(ctx, channelID, userID, message); err != nil {
		return err
	}
	if mirror != nil && mirror.ChannelID != "" {
		if err := s.channels.TouchLastMessage(ctx, mirror.ChannelID, s.now()); err != nil {
			s.logger.Warn("Chat channel last_message_at update failed", zap.String("channel_id", mirror.ChannelID), zap.Error(err))
		}
	}
	return nil
}

// ListChannels the caller's mirrored channels.
func (s *ChatService) ListChannels(ctx context.Context, c Caller) ([]*domain.ChatChannel, error) {
	switch c.Role {
	case domain.RoleFamily:
		f, err := familyOf(ctx, s.families, c)
		if err != nil {
			return nil, err
		}
		return s.channels.ListChannels(ctx, repository.ChatChannelsFilter{FamilyID: f.FamilyID})
	case domain.RoleProvider:
		a, err := agencyOf(ctx, s.agencies, c)
		if err != nil {
			return nil, err
		}
		return s.channels.ListChannels(ctx, repository.ChatChannelsFilter{AgencyID: a.AgencyID})
	}
	if c.AccountID == "" {
		return nil, ErrUnauthenticated
	}
	return nil, ErrForbidden
}

type ChatTokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	APIKey string `json:"apiKey"`
}

// ProviderToken POST /chat/token
func (s *ChatService) ProviderToken(ctx context.Context, c Caller) (*ChatTokenResponse, error) {
	agency, err := agencyOf(ctx, s.agencies, c)
	if err != nil {
		return nil, err
	}
	return s.token(ctx, newChatUser(ChatUserIDForAgency(agency.AgencyID), agency.BusinessName))
}

// FamilyToken POST /chat/family-token
func (s *ChatService) FamilyToken(ctx context.Context, c Caller) (*ChatTokenResponse, error) {
	family, err := familyOf(ctx, s.families, c)
	if err != nil {
		return nil, err
	}
	return s.token(ctx, newChatUser(ChatUserIDForFamily(family.FamilyID), family.FullName))
}

// newChatUser a regular (non-admin) chat user.
func newChatUser(id, name string) ChatUser {
	return ChatUser{ID: id, Name: name, Role: "user"}
}

func (s *ChatService) token(ctx context.Context, u ChatUser) (*ChatTokenResponse, error) {
	if s.chat == nil {
		return nil, ErrChatNotConfigured
	}
	if err := s.chat.UpsertUsers(ctx, u); err != nil {
		return nil, err
	}
	tok, err := s.chat.UserToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign chat token: %w", err)
	}
	return &ChatTokenResponse{Token: tok, UserID: u.ID, APIKey: s.chat.APIKey()}, nil
}
