package repository

import (
	"context"
	"time"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// ChatChannelsRepository local mirror of external chat channels
type ChatChannelsRepository interface {
	FindInvitationChannel(ctx context.Context, agencyID, familyID string) (*domain.ChatChannel, error)
	FindMatchedChannel(ctx context.Context, careMatchID string) (*domain.ChatChannel, error)
	// FindChannelByExternalID matched channels are shared by every care match of one
	// (agency, family) pair, so the external id is the pair-level key.
	FindChannelByExternalID(ctx context.Context, externalChannelID string) (*domain.ChatChannel, error)
	// InsertChannelIfAbsent is a conditional upsert: when a row for the same key already
	// exists it is returned unchanged with created=false.
	InsertChannelIfAbsent(ctx context.Context, channel *domain.ChatChannel) (saved *domain.ChatChannel, created bool, err error)
	ListChannels(ctx context.Context, filter ChatChannelsFilter) ([]*domain.ChatChannel, error)
	TouchLastMessage(ctx context.Context, channelID string, at time.Time) error
}

// ChatChannelsFilter one of AgencyID / FamilyID
type ChatChannelsFilter struct {
	AgencyID string
	FamilyID string
}
