package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// ========== contracts ==========

func (s *MemoryStore) CreateContract(_ context.Context, contract *domain.Contract) (*domain.Contract, error) {
	if contract == nil {
		return nil, fmt.Errorf("contract is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := *contract
	c.ContractID = uuid.NewString()
	if c.Status == "" {
		c.Status = domain.ContractStatusDraft
	}
	if c.Status == domain.ContractStatusSent {
		c.SentAt = &now
	}
	c.CreatedAt, c.UpdatedAt = now, now
	s.contracts[c.ContractID] = c
	return &c, nil
}

func (s *MemoryStore) GetContract(_ context.Context, contractID string) (*domain.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contracts[contractID]
	if !ok {
		return nil, fmt.Errorf("contract not found: %w", ErrNotFound)
	}
	return &c, nil
}

func (s *MemoryStore) TransitionForFamily(_ context.Context, contractID, familyID string, t domain.ContractTransition) (*domain.Contract, error) {
	return s.transition(contractID, t, func(c domain.Contract) bool { return c.FamilyID == familyID })
}

func (s *MemoryStore) TransitionForAgency(_ context.Context, contractID, agencyID string, t domain.ContractTransition) (*domain.Contract, error) {
	return s.transition(contractID, t, func(c domain.Contract) bool { return c.AgencyID == agencyID })
}

func (s *MemoryStore) transition(contractID string, t domain.ContractTransition, owns func(domain.Contract) bool) (*domain.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contracts[contractID]
	if !ok || !owns(c) || !statusIn(c.Status, t.From) {
		return nil, fmt.Errorf("contract not found or not in an allowed status: %w", ErrNotFound)
	}

	now := s.now()
	c.Status = t.To
	switch t.To {
	case domain.ContractStatusSent:
		if c.SentAt == nil {
			c.SentAt = &now
		}
	case domain.ContractStatusAccepted:
		if c.AcceptedAt == nil {
			c.AcceptedAt = &now
		}
	case domain.ContractStatusRejected:
		if c.RejectedAt == nil {
			c.RejectedAt = &now
		}
	}
	c.UpdatedAt = now
	s.contracts[contractID] = c
	return &c, nil
}

func statusIn(status domain.ContractStatus, set []domain.ContractStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func (s *MemoryStore) ListContracts(_ context.Context, filter ContractsFilter) ([]*domain.Contract, error) {
	if filter.FamilyID == "" && filter.AgencyID == "" {
		return nil, fmt.Errorf("family_id or agency_id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Contract{}
	for _, c := range s.contracts {
		if filter.FamilyID != "" && c.FamilyID != filter.FamilyID {
			continue
		}
		if filter.AgencyID != "" && c.AgencyID != filter.AgencyID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ========== invoices ==========

func (s *MemoryStore) CreateInvoice(_ context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	if invoice == nil {
		return nil, fmt.Errorf("invoice is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inv := *invoice
	inv.InvoiceID = uuid.NewString()
	inv.CreatedAt = s.now()
	inv.Lines = append([]domain.InvoiceLine{}, invoice.Lines...)
	inv.Meta = json.RawMessage(jsonOrDefault(invoice.Meta, "{}"))
	s.invoices[inv.InvoiceID] = inv
	return &inv, nil
}

func (s *MemoryStore) ListInvoices(_ context.Context, filter InvoicesFilter) ([]*domain.Invoice, error) {
	if filter.AgencyID == "" && filter.FamilyID == "" {
		return nil, fmt.Errorf("agency_id or family_id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Invoice{}
	for _, inv := range s.invoices {
		if filter.AgencyID != "" && inv.AgencyID != filter.AgencyID {
			continue
		}
		if filter.FamilyID != "" && inv.FamilyID != filter.FamilyID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		inv := inv
		out = append(out, &inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ========== notifications ==========

func (s *MemoryStore) CreateNotification(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n == nil {
		return nil, fmt.Errorf("notification is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *n
	saved.NotificationID = uuid.NewString()
	if saved.Severity == "" {
		saved.Severity = domain.SeverityInfo
	}
	saved.IsRead = false
	saved.CreatedAt = s.now()
	s.notifications[saved.NotificationID] = saved
	return &saved, nil
}

func matchesRecipient(n domain.Notification, filter NotificationsFilter) bool {
	if n.Role != filter.Role {
		return false
	}
	switch filter.Role {
	case domain.RoleProvider:
		return n.AgencyID != nil && *n.AgencyID == filter.AgencyID
	case domain.RoleFamily:
		return n.FamilyID != nil && *n.FamilyID == filter.FamilyID
	}
	return false
}

func (s *MemoryStore) ListNotifications(_ context.Context, filter NotificationsFilter) ([]*domain.Notification, error) {
	if !filter.Role.Valid() {
		return nil, fmt.Errorf("invalid notification role: %q", filter.Role)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Notification{}
	for _, n := range s.notifications {
		if !matchesRecipient(n, filter) || (filter.UnreadOnly && n.IsRead) {
			continue
		}
		n := n
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, filter NotificationsFilter, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	for _, id := range ids {
		n, ok := s.notifications[id]
		if !ok || !matchesRecipient(n, filter) {
			continue
		}
		n.IsRead = true
		s.notifications[id] = n
		affected++
	}
	return affected, nil
}

// ========== chat channels ==========

func (s *MemoryStore) FindInvitationChannel(_ context.Context, agencyID, familyID string) (*domain.ChatChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.findInvitationLocked(agencyID, familyID); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("chat channel not found: %w", ErrNotFound)
}

func (s *MemoryStore) findInvitationLocked(agencyID, familyID string) *domain.ChatChannel {
	for _, c := range s.channels {
		if c.CareMatchID == nil && c.AgencyID == agencyID && c.FamilyID == familyID {
			c := c
			return &c
		}
	}
	return nil
}

func (s *MemoryStore) FindMatchedChannel(_ context.Context, careMatchID string) (*domain.ChatChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.findMatchedLocked(careMatchID); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("chat channel not found: %w", ErrNotFound)
}

func (s *MemoryStore) findMatchedLocked(careMatchID string) *domain.ChatChannel {
	for _, c := range s.channels {
		if c.CareMatchID != nil && *c.CareMatchID == careMatchID {
			c := c
			return &c
		}
	}
	return nil
}

func (s *MemoryStore) FindChannelByExternalID(_ context.Context, externalChannelID string) (*domain.ChatChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.findExternalLocked(externalChannelID); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("chat channel not found: %w", ErrNotFound)
}

func (s *MemoryStore) findExternalLocked(externalChannelID string) *domain.ChatChannel {
	for _, c := range s.channels {
		if c.ExternalChannelID == externalChannelID {
			c := c
			return &c
		}
	}
	return nil
}

func (s *MemoryStore) InsertChannelIfAbsent(_ context.Context, channel *domain.ChatChannel) (*domain.ChatChannel, bool, error) {
	if channel == nil {
		return nil, false, fmt.Errorf("chat channel is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *domain.ChatChannel
	if channel.CareMatchID != nil {
		existing = s.findMatchedLocked(*channel.CareMatchID)
	} else {
		existing = s.findInvitationLocked(channel.AgencyID, channel.FamilyID)
	}
	if existing == nil {
		existing = s.findExternalLocked(channel.ExternalChannelID)
	}
	if existing != nil {
		return existing, false, nil
	}

	c := *channel
	c.ChannelID = uuid.NewString()
	c.CreatedAt = s.now()
	s.channels[c.ChannelID] = c
	return &c, true, nil
}

func (s *MemoryStore) ListChannels(_ context.Context, filter ChatChannelsFilter) ([]*domain.ChatChannel, error) {
	if filter.AgencyID == "" && filter.FamilyID == "" {
		return nil, fmt.Errorf("agency_id or family_id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.ChatChannel{}
	for _, c := range s.channels {
		if filter.AgencyID != "" && c.AgencyID != filter.AgencyID {
			continue
		}
		if filter.AgencyID == "" && c.FamilyID != filter.FamilyID {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].LastMessageAt, out[j].LastMessageAt
		switch {
		case li != nil && lj != nil && !li.Equal(*lj):
			return li.After(*lj)
		case li != nil && lj == nil:
			return true
		case li == nil && lj != nil:
			return false
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) TouchLastMessage(_ context.Context, channelID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.channels[channelID]; ok {
		c.LastMessageAt = &at
		s.channels[channelID] = c
	}
	return nil
}

// ========== onboarding sessions ==========

func (s *MemoryStore) activeSessionLocked(familyID string) *domain.OnboardingSession {
	for _, sess := range s.sessions {
		if sess.FamilyID == familyID && !sess.Completed() {
			sess := sess
			return &sess
		}
	}
	return nil
}

func (s *MemoryStore) GetActiveSession(_ context.Context, familyID string) (*domain.OnboardingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess := s.activeSessionLocked(familyID); sess != nil {
		return sess, nil
	}
	return nil, fmt.Errorf("onboarding session not found: %w", ErrNotFound)
}

func (s *MemoryStore) GetSession(_ context.Context, sessionID, familyID string) (*domain.OnboardingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.FamilyID != familyID {
		return nil, fmt.Errorf("onboarding session not found: %w", ErrNotFound)
	}
	return &sess, nil
}

func (s *MemoryStore) CreateSession(_ context.Context, familyID string) (*domain.OnboardingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.activeSessionLocked(familyID); sess != nil {
		return sess, nil
	}
	now := s.now()
	sess := domain.OnboardingSession{
		SessionID:   uuid.NewString(),
		FamilyID:    familyID,
		CurrentStep: domain.OnboardingFirstStep,
		StepData:    json.RawMessage(`{}`),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.sessions[sess.SessionID] = sess
	return &sess, nil
}

func (s *MemoryStore) SaveStep(_ context.Context, sessionID, familyID string, step int, key string, data json.RawMessage) (*domain.OnboardingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.FamilyID != familyID {
		return nil, fmt.Errorf("onboarding session not found: %w", ErrNotFound)
	}
	if sess.Completed() {
		return nil, fmt.Errorf("onboarding session already completed: %w", ErrConflict)
	}

	merged := map[string]json.RawMessage{}
	if len(sess.StepData) > 0 {
		if err := json.Unmarshal(sess.StepData, &merged); err != nil {
			return nil, fmt.Errorf("failed to decode step data: %w", err)
		}
	}
	merged[key] = json.RawMessage(jsonOrDefault(data, "{}"))
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode step data: %w", err)
	}

	sess.StepData = raw
	sess.CurrentStep = step
	sess.UpdatedAt = s.now()
	s.sessions[sessionID] = sess
	return &sess, nil
}

func (s *MemoryStore) FinalizeSession(_ context.Context, sessionID, familyID string, patient *domain.Patient) (*domain.OnboardingSession, *domain.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.FamilyID != familyID {
		return nil, nil, fmt.Errorf("onboarding session not found: %w", ErrNotFound)
	}
	if sess.Completed() {
		return nil, nil, fmt.Errorf("onboarding session already completed: %w", ErrConflict)
	}

	patient.FamilyID = familyID
	created, err := s.createPatientLocked(patient)
	if err != nil {
		return nil, nil, err
	}
	now := s.now()
	sess.PatientID = &created.PatientID
	sess.CurrentStep = domain.OnboardingLastStep
	sess.CompletedAt = &now
	sess.UpdatedAt = now
	s.sessions[sessionID] = sess
	return &sess, created, nil
}

func (s *MemoryStore) ListFiles(_ context.Context, sessionID string) ([]domain.OnboardingFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.OnboardingFile{}, s.files[sessionID]...), nil
}

func (s *MemoryStore) DeleteSessionCascade(_ context.Context, sessionID, familyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.FamilyID != familyID {
		return fmt.Errorf("onboarding session not found: %w", ErrNotFound)
	}
	delete(s.files, sessionID)
	delete(s.sessions, sessionID)
	return nil
}
