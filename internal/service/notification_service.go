package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

// NotificationService notification rows plus live fan-out
type NotificationService struct {
	repo      repository.NotificationsRepository
	families  repository.FamiliesRepository
	agencies  repository.AgenciesRepository
	publisher NotificationPublisher // optional
	logger    *zap.Logger
}

func NewNotificationService(
	repo repository.NotificationsRepository,
	families repository.FamiliesRepository,
	agencies repository.AgenciesRepository,
	publisher NotificationPublisher,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{repo: repo, families: families, agencies: agencies, publisher: publisher, logger: logger}
}

// CreateNotificationRequest POST /notifications/create
type CreateNotificationRequest struct {
	Role       domain.Role
	AgencyID   string
	FamilyID   string
	Title      string
	Body       string
	Severity   domain.Severity
	ContractID string
	PatientID  string
}

func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*domain.Notification, error) {
	if req.Role == "" {
		return nil, required("role")
	}
	if !req.Role.Valid() {
		return nil, invalid("role", "role must be family or provider")
	}
	if req.Role == domain.RoleFamily && req.FamilyID == "" {
		return nil, required("familyId")
	}
	if req.Role == domain.RoleProvider && req.AgencyID == "" {
		return nil, required("agencyId")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, required("title")
	}
	if req.Severity == "" {
		req.Severity = domain.SeverityInfo
	}
	if !req.Severity.Valid() {
		return nil, invalid("severity", "severity must be one of info, success, warning, error")
	}

	n, err := s.repo.CreateNotification(ctx, &domain.Notification{
		Role:       req.Role,
		AgencyID:   strPtr(req.AgencyID),
		FamilyID:   strPtr(req.FamilyID),
		Title:      strings.TrimSpace(req.Title),
		Body:       req.Body,
		Severity:   req.Severity,
		ContractID: strPtr(req.ContractID),
		PatientID:  strPtr(req.PatientID),
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, n)
	return n, nil
}

// Notify best-effort side-effect notification: failures are logged, never returned.
func (s *NotificationService) Notify(ctx context.Context, n *domain.Notification) {
	saved, err := s.repo.CreateNotification(ctx, n)
	if err != nil {
		s.logger.Warn("Notification insert failed",
			zap.String("role", string(n.Role)),
			zap.String("target_id", n.TargetID()),
			zap.String("title", n.Title),
			zap.Error(err),
		)
		return
	}
	s.publish(ctx, saved)
}

func (s *NotificationService) publish(ctx context.Context, n *domain.Notification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.Warn("Notification publish failed",
			zap.String("notification_id", n.NotificationID),
			zap.Error(err),
		)
	}
}

// recipient the caller's own notification filter.
func (s *NotificationService) recipient(ctx context.Context, c Caller) (repository.NotificationsFilter, error) {
	switch c.Role {
	case domain.RoleFamily:
		f, err := familyOf(ctx, s.families, c)
		if err != nil {
			return repository.NotificationsFilter{}, err
		}
		return repository.NotificationsFilter{Role: domain.RoleFamily, FamilyID: f.FamilyID}, nil
	case domain.RoleProvider:
		a, err := agencyOf(ctx, s.agencies, c)
		if err != nil {
			return repository.NotificationsFilter{}, err
		}
		return repository.NotificationsFilter{Role: domain.RoleProvider, AgencyID: a.AgencyID}, nil
	}
	if c.AccountID == "" {
		return repository.NotificationsFilter{}, ErrUnauthenticated
	}
	return repository.NotificationsFilter{}, ErrForbidden
}

// ListNotificationsRequest GET /notifications
type ListNotificationsRequest struct {
	Caller     Caller
	UnreadOnly bool
	Limit      int
}

func (s *NotificationService) List(ctx context.Context, req ListNotificationsRequest) ([]*domain.Notification, error) {
	filter, err := s.recipient(ctx, req.Caller)
	if err != nil {
		return nil, err
	}
	filter.UnreadOnly = req.UnreadOnly
	filter.Limit = req.Limit
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return s.repo.ListNotifications(ctx, filter)
}

// MarkReadRequest POST /notifications/read
type MarkReadRequest struct {
	Caller Caller
	IDs    []string
}

func (s *NotificationService) MarkRead(ctx context.Context, req MarkReadRequest) (int64, error) {
	if len(req.IDs) == 0 {
		return 0, required("ids")
	}
	filter, err := s.recipient(ctx, req.Caller)
	if err != nil {
		return 0, err
	}
	// ids that are not uuids match no row
	ids := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		if isUUID(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.MarkRead(ctx, filter, ids)
}
