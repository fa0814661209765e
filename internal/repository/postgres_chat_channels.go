package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// PostgresChatChannelsRepository chat_channels mirror table
type PostgresChatChannelsRepository struct {
	db *sql.DB
}

func NewPostgresChatChannelsRepository(db *sql.DB) *PostgresChatChannelsRepository {
	return &PostgresChatChannelsRepository{db: db}
}

var _ ChatChannelsRepository = (*PostgresChatChannelsRepository)(nil)

const chatChannelColumns = `channel_id::text, external_channel_id, channel_type, care_match_id::text,
	agency_id::text, family_id::text, last_message_at, created_at`

func scanChatChannel(row interface{ Scan(...any) error }) (*domain.ChatChannel, error) {
	var c domain.ChatChannel
	err := row.Scan(&c.ChannelID, &c.ExternalChannelID, &c.ChannelType, &c.CareMatchID,
		&c.AgencyID, &c.FamilyID, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresChatChannelsRepository) findOne(ctx context.Context, where string, args ...any) (*domain.ChatChannel, error) {
	c, err := scanChatChannel(r.db.QueryRowContext(ctx, `SELECT `+chatChannelColumns+` FROM chat_channels WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat channel not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get chat channel: %w", err)
	}
	return c, nil
}

func (r *PostgresChatChannelsRepository) FindInvitationChannel(ctx context.Context, agencyID, familyID string) (*domain.ChatChannel, error) {
	return r.findOne(ctx, `agency_id = $1 AND family_id = $2 AND care_match_id IS NULL`, agencyID, familyID)
}

func (r *PostgresChatChannelsRepository) FindMatchedChannel(ctx context.Context, careMatchID string) (*domain.ChatChannel, error) {
	return r.findOne(ctx, `care_match_id = $1`, careMatchID)
}

func (r *PostgresChatChannelsRepository) FindChannelByExternalID(ctx context.Context, externalChannelID string) (*domain.ChatChannel, error) {
	return r.findOne(ctx, `external_channel_id = $1`, externalChannelID)
}

func (r *PostgresChatChannelsRepository) InsertChannelIfAbsent(ctx context.Context, channel *domain.ChatChannel) (*domain.ChatChannel, bool, error) {
	if channel == nil {
		return nil, false, fmt.Errorf("chat channel is required")
	}
	query := `
		INSERT INTO chat_channels (external_channel_id, channel_type, care_match_id, agency_id, family_id, last_message_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
		RETURNING ` + chatChannelColumns
	saved, err := scanChatChannel(r.db.QueryRowContext(ctx, query,
		channel.ExternalChannelID, string(channel.ChannelType), channel.CareMatchID,
		channel.AgencyID, channel.FamilyID, channel.LastMessageAt))
	if err == nil {
		return saved, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert chat channel: %w", err)
	}

	// lost the race: return the row that won
	var existing *domain.ChatChannel
	if channel.CareMatchID != nil {
		existing, err = r.FindMatchedChannel(ctx, *channel.CareMatchID)
	} else {
		existing, err = r.FindInvitationChannel(ctx, channel.AgencyID, channel.FamilyID)
	}
	if errors.Is(err, ErrNotFound) {
		existing, err = r.FindChannelByExternalID(ctx, channel.ExternalChannelID)
	}
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PostgresChatChannelsRepository) ListChannels(ctx context.Context, filter ChatChannelsFilter) ([]*domain.ChatChannel, error) {
	var (
		where string
		arg   string
	)
	switch {
	case filter.AgencyID != "":
		where, arg = "agency_id = $1", filter.AgencyID
	case filter.FamilyID != "":
		where, arg = "family_id = $1", filter.FamilyID
	default:
		return nil, fmt.Errorf("agency_id or family_id is required")
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+chatChannelColumns+` FROM chat_channels WHERE `+where+
		` ORDER BY last_message_at DESC NULLS LAST, created_at DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat channels: %w", err)
	}
	defer rows.Close()

	out := []*domain.ChatChannel{}
	for rows.Next() {
		c, err := scanChatChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat channel: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresChatChannelsRepository) TouchLastMessage(ctx context.Context, channelID string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE chat_channels SET last_message_at = $2 WHERE channel_id = $1`, channelID, at); err != nil {
		return fmt.Errorf("failed to touch chat channel: %w", err)
	}
	return nil
}
