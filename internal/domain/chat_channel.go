package domain

import "time"

// ChatChannelType chat_channels.channel_type
type ChatChannelType string

const (
	ChatChannelInvitation ChatChannelType = "invitation" // pre-match, CareMatchID == nil
	ChatChannelMatched    ChatChannelType = "matched"
)

// ChatChannel chat_channels: local mirror of an external chat channel
type ChatChannel struct {
	ChannelID         string          `db:"channel_id" json:"id"`
	ExternalChannelID string          `db:"external_channel_id" json:"channelId"`
	ChannelType       ChatChannelType `db:"channel_type" json:"type"`
	CareMatchID       *string         `db:"care_match_id" json:"careMatchId,omitempty"`
	AgencyID          string          `db:"agency_id" json:"agencyId"`
	FamilyID          string          `db:"family_id" json:"familyId"`
	LastMessageAt     *time.Time      `db:"last_message_at" json:"lastMessageAt,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}
