package repository

import (
	"context"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// NotificationsRepository notifications table
type NotificationsRepository interface {
	CreateNotification(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	ListNotifications(ctx context.Context, filter NotificationsFilter) ([]*domain.Notification, error)
	// MarkRead flags ids as read, restricted to the recipient in filter. Returns rows affected.
	MarkRead(ctx context.Context, filter NotificationsFilter, ids []string) (int64, error)
}

// NotificationsFilter recipient = Role + (AgencyID for provider | FamilyID for family)
type NotificationsFilter struct {
	Role       domain.Role
	AgencyID   string
	FamilyID   string
	UnreadOnly bool
	Limit      int
}
