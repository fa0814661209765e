package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// PostgresNotificationsRepository notifications table
type PostgresNotificationsRepository struct {
	db *sql.DB
}

func NewPostgresNotificationsRepository(db *sql.DB) *PostgresNotificationsRepository {
	return &PostgresNotificationsRepository{db: db}
}

var _ NotificationsRepository = (*PostgresNotificationsRepository)(nil)

const notificationColumns = `notification_id::text, role, agency_id::text, family_id::text, title, body,
	severity, contract_id::text, patient_id::text, is_read, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(
		&n.NotificationID, &n.Role, &n.AgencyID, &n.FamilyID, &n.Title, &n.Body,
		&n.Severity, &n.ContractID, &n.PatientID, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *PostgresNotificationsRepository) CreateNotification(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n == nil {
		return nil, fmt.Errorf("notification is required")
	}
	severity := n.Severity
	if severity == "" {
		severity = domain.SeverityInfo
	}
	query := `
		INSERT INTO notifications (role, agency_id, family_id, title, body, severity, contract_id, patient_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + notificationColumns
	saved, err := scanNotification(r.db.QueryRowContext(ctx, query,
		string(n.Role), n.AgencyID, n.FamilyID, n.Title, n.Body, string(severity), n.ContractID, n.PatientID))
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return saved, nil
}

// recipientWhere builds the role + target predicate starting at $1.
func recipientWhere(filter NotificationsFilter) ([]string, []any, error) {
	switch filter.Role {
	case domain.RoleProvider:
		if filter.AgencyID == "" {
			return nil, nil, fmt.Errorf("agency_id is required for provider notifications")
		}
		return []string{"role = $1", "agency_id = $2"}, []any{string(filter.Role), filter.AgencyID}, nil
	case domain.RoleFamily:
		if filter.FamilyID == "" {
			return nil, nil, fmt.Errorf("family_id is required for family notifications")
		}
		return []string{"role = $1", "family_id = $2"}, []any{string(filter.Role), filter.FamilyID}, nil
	default:
		return nil, nil, fmt.Errorf("invalid notification role: %q", filter.Role)
	}
}

func (r *PostgresNotificationsRepository) ListNotifications(ctx context.Context, filter NotificationsFilter) ([]*domain.Notification, error) {
	where, args, err := recipientWhere(filter)
	if err != nil {
		return nil, err
	}
	if filter.UnreadOnly {
		where = append(where, "NOT is_read")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE ` + strings.Join(where, " AND ") +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []*domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PostgresNotificationsRepository) MarkRead(ctx context.Context, filter NotificationsFilter, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	where, args, err := recipientWhere(filter)
	if err != nil {
		return 0, err
	}
	where = append(where, "notification_id::text = ANY($3)")
	args = append(args, pq.Array(ids))

	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
