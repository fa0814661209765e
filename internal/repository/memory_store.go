package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// MemoryStore backs every repository interface when DB is disabled (local dev, tests).
// One lock guards all tables so multi-table operations stay atomic.
type MemoryStore struct {
	mu sync.RWMutex

	profiles      map[string]domain.Profile // id -> profile
	families      map[string]domain.Family  // family_id -> family
	patients      map[string]domain.Patient
	agencies      map[string]domain.Agency
	services      map[string][]domain.AgencyService // agency_id -> rows
	strengths     map[string][]domain.AgencyStrength
	rates         map[string][]domain.AgencyRate
	contracts     map[string]domain.Contract
	invoices      map[string]domain.Invoice
	notifications map[string]domain.Notification
	matches       map[string]domain.CareMatch
	channels      map[string]domain.ChatChannel
	sessions      map[string]domain.OnboardingSession
	files         map[string][]domain.OnboardingFile // session_id -> files

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:      map[string]domain.Profile{},
		families:      map[string]domain.Family{},
		patients:      map[string]domain.Patient{},
		agencies:      map[string]domain.Agency{},
		services:      map[string][]domain.AgencyService{},
		strengths:     map[string][]domain.AgencyStrength{},
		rates:         map[string][]domain.AgencyRate{},
		contracts:     map[string]domain.Contract{},
		invoices:      map[string]domain.Invoice{},
		notifications: map[string]domain.Notification{},
		matches:       map[string]domain.CareMatch{},
		channels:      map[string]domain.ChatChannel{},
		sessions:      map[string]domain.OnboardingSession{},
		files:         map[string][]domain.OnboardingFile{},
		now:           time.Now,
	}
}

var (
	_ ProfilesRepository           = (*MemoryStore)(nil)
	_ FamiliesRepository           = (*MemoryStore)(nil)
	_ AgenciesRepository           = (*MemoryStore)(nil)
	_ ContractsRepository          = (*MemoryStore)(nil)
	_ InvoicesRepository           = (*MemoryStore)(nil)
	_ NotificationsRepository      = (*MemoryStore)(nil)
	_ MatchesRepository            = (*MemoryStore)(nil)
	_ ChatChannelsRepository       = (*MemoryStore)(nil)
	_ OnboardingSessionsRepository = (*MemoryStore)(nil)
)

// ========== seeding (rows written by the identity provider or upstream jobs) ==========

// PutProfile inserts or replaces a profile row.
func (s *MemoryStore) PutProfile(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.profiles[p.ID] = p
}

// DeleteProfile simulates an account removed upstream.
func (s *MemoryStore) DeleteProfile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, id)
}

// PutCareMatch inserts a match row; MatchID is generated when empty.
func (s *MemoryStore) PutCareMatch(m domain.CareMatch) domain.CareMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.MatchID == "" {
		m.MatchID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	s.matches[m.MatchID] = m
	return m
}

// PutOnboardingFile attaches an uploaded file to a session.
func (s *MemoryStore) PutOnboardingFile(f domain.OnboardingFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.FileID == "" {
		f.FileID = uuid.NewString()
	}
	s.files[f.SessionID] = append(s.files[f.SessionID], f)
}

// SetPermitVerified stands in for the back-office permit review.
func (s *MemoryStore) SetPermitVerified(agencyID string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agencies[agencyID]
	if !ok {
		return fmt.Errorf("agency not found: %w", ErrNotFound)
	}
	a.PermitVerified = verified
	s.agencies[agencyID] = a
	return nil
}

// ========== profiles ==========

func (s *MemoryStore) GetProfile(_ context.Context, accountID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return nil, fmt.Errorf("profile not found: %w", ErrNotFound)
	}
	return &p, nil
}

// ========== families ==========

func (s *MemoryStore) GetFamilyByUser(_ context.Context, userID string) (*domain.Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.families {
		if f.UserID == userID {
			f := f
			return &f, nil
		}
	}
	return nil, fmt.Errorf("family not found: %w", ErrNotFound)
}

func (s *MemoryStore) UpsertFamily(_ context.Context, family *domain.Family) (*domain.Family, error) {
	if family == nil || family.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, f := range s.families {
		if f.UserID != family.UserID {
			continue
		}
		f.FullName, f.Phone, f.City, f.State = family.FullName, family.Phone, family.City, family.State
		f.UpdatedAt = now
		s.families[id] = f
		return &f, nil
	}
	f := *family
	f.FamilyID = uuid.NewString()
	f.CreatedAt, f.UpdatedAt = now, now
	s.families[f.FamilyID] = f
	return &f, nil
}

func (s *MemoryStore) GetPatient(_ context.Context, patientID string) (*domain.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[patientID]
	if !ok {
		return nil, fmt.Errorf("patient not found: %w", ErrNotFound)
	}
	return &p, nil
}

func (s *MemoryStore) ListPatients(_ context.Context, familyID string) ([]*domain.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*domain.Patient{}
	for _, p := range s.patients {
		if p.FamilyID == familyID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreatePatient(_ context.Context, patient *domain.Patient) (*domain.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createPatientLocked(patient)
}

func (s *MemoryStore) createPatientLocked(patient *domain.Patient) (*domain.Patient, error) {
	if patient == nil || patient.FamilyID == "" {
		return nil, fmt.Errorf("family_id is required")
	}
	p := *patient
	p.PatientID = uuid.NewString()
	p.CreatedAt = s.now()
	if p.ServiceRequirements == nil {
		p.ServiceRequirements = pq.StringArray{}
	}
	s.patients[p.PatientID] = p
	return &p, nil
}

// ========== agencies ==========

func (s *MemoryStore) GetAgency(_ context.Context, agencyID string) (*domain.Agency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agencies[agencyID]
	if !ok {
		return nil, fmt.Errorf("agency not found: %w", ErrNotFound)
	}
	return &a, nil
}

func (s *MemoryStore) GetAgencyByUser(_ context.Context, userID string) (*domain.Agency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.agencies {
		if a.UserID == userID {
			a := a
			return &a, nil
		}
	}
	return nil, fmt.Errorf("agency not found: %w", ErrNotFound)
}

func (s *MemoryStore) UpsertBusinessInfo(_ context.Context, userID string, info domain.BusinessInfo) (*domain.Agency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var a domain.Agency
	found := false
	for _, existing := range s.agencies {
		if existing.UserID == userID {
			a, found = existing, true
			break
		}
	}
	if !found {
		a = domain.Agency{
			AgencyID:     uuid.NewString(),
			UserID:       userID,
			Status:       domain.AgencyStatusDraft,
			ServiceAreas: pq.StringArray{},
			CreatedAt:    now,
		}
	}
	if a.PermitNumber != info.PermitNumber {
		a.PermitVerified = false
	}
	a.BusinessName = info.BusinessName
	a.ContactEmail = info.ContactEmail
	a.ContactPhone = info.ContactPhone
	a.StreetAddress = info.StreetAddress
	a.City = info.City
	a.State = info.State
	a.ZipCode = info.ZipCode
	a.Description = info.Description
	a.PermitNumber = info.PermitNumber
	a.UpdatedAt = now
	s.agencies[a.AgencyID] = a
	return &a, nil
}

func (s *MemoryStore) updateAgency(agencyID string, fn func(a *domain.Agency)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agencies[agencyID]
	if !ok {
		return fmt.Errorf("agency not found: %w", ErrNotFound)
	}
	fn(&a)
	a.UpdatedAt = s.now()
	s.agencies[agencyID] = a
	return nil
}

func (s *MemoryStore) SetServiceAreas(_ context.Context, agencyID string, areas []string) error {
	return s.updateAgency(agencyID, func(a *domain.Agency) {
		a.ServiceAreas = append(pq.StringArray{}, areas...)
	})
}

func (s *MemoryStore) SetStatus(_ context.Context, agencyID string, status domain.AgencyStatus) error {
	return s.updateAgency(agencyID, func(a *domain.Agency) { a.Status = status })
}

func (s *MemoryStore) MarkOnboardingCompleted(_ context.Context, agencyID string) (bool, error) {
	flipped := false
	err := s.updateAgency(agencyID, func(a *domain.Agency) {
		if !a.OnboardingCompleted {
			a.OnboardingCompleted = true
			flipped = true
		}
	})
	return flipped, err
}

func (s *MemoryStore) ListPublished(_ context.Context) ([]*domain.Agency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*domain.Agency{}
	for _, a := range s.agencies {
		if a.Status == domain.AgencyStatusPublished {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessName < out[j].BusinessName })
	return out, nil
}

func (s *MemoryStore) ListServices(_ context.Context, agencyID string) ([]domain.AgencyService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AgencyService{}, s.services[agencyID]...), nil
}

func (s *MemoryStore) ListServicesForAgencies(_ context.Context, agencyIDs []string) (map[string][]domain.AgencyService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]domain.AgencyService, len(agencyIDs))
	for _, id := range agencyIDs {
		if rows := s.services[id]; len(rows) > 0 {
			out[id] = append([]domain.AgencyService{}, rows...)
		}
	}
	return out, nil
}

func (s *MemoryStore) ReplaceServices(_ context.Context, agencyID string, services []domain.AgencyService) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]domain.AgencyService, 0, len(services))
	for _, svc := range services {
		svc.AgencyID = agencyID
		rows = append(rows, svc)
	}
	s.services[agencyID] = rows
	return nil
}

func (s *MemoryStore) CountServices(_ context.Context, agencyID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.services[agencyID]), nil
}

func (s *MemoryStore) ListStrengths(_ context.Context, agencyID string) ([]domain.AgencyStrength, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AgencyStrength{}, s.strengths[agencyID]...), nil
}

func (s *MemoryStore) ReplaceStrengths(_ context.Context, agencyID string, strengths []domain.AgencyStrength) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]domain.AgencyStrength, 0, len(strengths))
	for _, st := range strengths {
		st.AgencyID = agencyID
		rows = append(rows, st)
	}
	s.strengths[agencyID] = rows
	return nil
}

func (s *MemoryStore) CountStrengths(_ context.Context, agencyID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.strengths[agencyID]), nil
}

func (s *MemoryStore) ListRates(_ context.Context, agencyID string) ([]domain.AgencyRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AgencyRate{}, s.rates[agencyID]...), nil
}

func (s *MemoryStore) ReplaceRates(_ context.Context, agencyID string, rates []domain.AgencyRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]domain.AgencyRate, 0, len(rates))
	for _, rt := range rates {
		rt.AgencyID = agencyID
		rows = append(rows, rt)
	}
	s.rates[agencyID] = rows
	return nil
}

func (s *MemoryStore) CountRates(_ context.Context, agencyID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rates[agencyID]), nil
}

// ========== care matches ==========

func (s *MemoryStore) ListMatches(_ context.Context, patientID string, offset, limit int) ([]*domain.CareMatch, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := []*domain.CareMatch{}
	for _, m := range s.matches {
		if m.PatientID == patientID {
			m := m
			all = append(all, &m)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := len(all)
	start := offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *MemoryStore) CountMatches(ctx context.Context, patientID string) (int, error) {
	_, total, err := s.ListMatches(ctx, patientID, 0, 0)
	return total, err
}

func (s *MemoryStore) GetMatch(_ context.Context, matchID string) (*domain.CareMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("match not found: %w", ErrNotFound)
	}
	return &m, nil
}
