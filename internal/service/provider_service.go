package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

// DirectoryInvalidator drops the cached published-agency listing.
type DirectoryInvalidator interface {
	Invalidate(ctx context.Context)
}

// ProviderService agency profile forms and publish toggling
type ProviderService struct {
	agencies        repository.AgenciesRepository
	documents       DocumentStore
	documentsBucket string
	directory       DirectoryInvalidator // optional
	logger          *zap.Logger
}

func NewProviderService(
	agencies repository.AgenciesRepository,
	documents DocumentStore,
	documentsBucket string,
	directory DirectoryInvalidator,
	logger *zap.Logger,
) *ProviderService {
	return &ProviderService{
		agencies:        agencies,
		documents:       documents,
		documentsBucket: documentsBucket,
		directory:       directory,
		logger:          logger,
	}
}

// ProviderProfile GET /provider/profile
type ProviderProfile struct {
	Agency    *domain.Agency          `json:"agency"`
	Services  []domain.AgencyService  `json:"services"`
	Strengths []domain.AgencyStrength `json:"strengths"`
	Rates     []domain.AgencyRate     `json:"rates"`
}

func (s *ProviderService) GetProfile(ctx context.Context, c Caller) (*ProviderProfile, error) {
	agency, err := agencyOf(ctx, s.agencies, c)
	if err != nil {
		return nil, err
	}
	services, err := s.agencies.ListServices(ctx, agency.AgencyID)
	if err != nil {
		return nil, err
	}
	strengths, err := s.agencies.ListStrengths(ctx, agency.AgencyID)
	if err != nil {
		return nil, err
	}
	rates, err := s.agencies.ListRates(ctx, agency.AgencyID)
	if err != nil {
		return nil, err
	}
	return &ProviderProfile{Agency: agency, Services: services, Strengths: strengths, Rates: rates}, nil
}

// SaveBusinessInfo onboarding step 1; creates the agency row on first save.
func (s *ProviderService) SaveBusinessInfo(ctx context.Context, c Caller, info domain.BusinessInfo) (*domain.Agency, error) {
	if err := c.check(domain.RoleProvider); err != nil {
		return nil, err
	}
	info.BusinessName = strings.TrimSpace(info.BusinessName)
	if info.BusinessName == "" {
		return nil, invalid("businessName", "Business name required")
	}
	info.ContactEmail = strings.TrimSpace(info.ContactEmail)
	info.PermitNumber = strings.TrimSpace(info.PermitNumber)

	agency, err := s.agencies.UpsertBusinessInfo(ctx, c.AccountID, info)
	if err != nil {
		return nil, err
	}
	if agency.Status == domain.AgencyStatusPublished {
		s.invalidateDirectory(ctx)
	}
	return agency, nil
}

// SaveServices onboarding step 2; replaces the full set.
func (s *ProviderService) SaveServices(ctx context.Context, c Caller, services []domain.AgencyService) error {
	agency, err := agencyOf(ctx, s.agencies, c)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(services))
	clean := make([]domain.AgencyService, 0, len(services))
	for _, svc := range services {
		svc.ServiceID = strings.TrimSpace(svc.ServiceID)
		svc.ServiceName = strings.TrimSpace(svc.ServiceName)
		if svc.ServiceID == "" {
			return required("serviceId")
		}
		if svc.ServiceName == "" {
			return required("serviceName")
		}
		if seen[svc.ServiceID] {
			continue
		}
		seen[svc.ServiceID] = true
		clean = append(clean, svc)
	}
	return s.agencies.ReplaceServices(ctx, agency.AgencyID, clean)
}

// SaveStrengths onboarding step 3
func (s *ProviderService) SaveStrengths(ctx context.Context, c Caller, strengths []domain.AgencyStrength) error {
	agency, err := agencyOf(ctx, s.agencies, c)
	if err != nil {
		return err
	}
	for _, st := range strengths {
		if strings.TrimSpace(st.ServiceID) == "" {
			return required("serviceId")
		}
		if st.Points <= 0 {
			return invalid("points", "points must be positive")
		}
	}
	return s.agencies.ReplaceStrengths(ctx, agency.AgencyID, strengths)
}

// SaveRates onboarding step 4; amounts in minor units
func (s *ProviderService) SaveRates(ctx context.Context, c Caller, rates []domain.AgencyRate) error {
	agency, err := agencyOf(ctx, s.agencies, c)
	if err != nil {
		return err
	}
	for _, r := range rates {
		if strings.TrimSpace(r.ServiceID) == "" {
			return required("serviceId")
		}
		if !r.RateType.Valid() {
			return invalid("rateType", "rateType must be hourly, daily or visit")
		}
		if r.AmountMinor < 0 {
			return invalid("amountMinor", "amountMinor must not be negative")
		}
	}
	return s.agencies.ReplaceRates(ctx, agency.AgencyID, rates)
}

func (s *ProviderService) SaveServiceAreas(ctx context.Context, c Caller, areas []string) error {
	agency, err := agencyOf(ctx, s.agencies, c)
	if err != nil {
		return err
	}
	clean := make([]string, 0, len(areas))
	for _, a := range areas {
		if a = strings.TrimSpace(a); a != "" {
			clean = append(clean, a)
		}
	}
	if err := s.agencies.SetServiceAreas(ctx, agency.AgencyID, clean); err != nil {
		return err
	}
	if agency.Status == domain.AgencyStatusPublished {
		s.invalidateDirectory(ctx)
	}
	return nil
}

// ListDocuments uploaded permit/licence documents under {agencyID}/
func (s *ProviderService) ListDocuments(ctx context.Context, c Caller) ([]StoredObject, error) {
	agency, err := agencyOf(ctx, s.agencies, c)
	if err != nil {
		return nil, err
	}
	if s.documents == nil {
		return []StoredObject{}, nil
	}
	return s.documents.List(ctx, s.documentsBucket, agency.AgencyID+"/")
}

// Publish checks the publish gates in order; the first unmet one is returned as a
// ValidationError naming its field.
func (s *ProviderService) Publish(ctx context.Context, c Caller) (*domain.Agency, error) {
	agency, err := agencyOf(ctx, s.agencies, c)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(agency.BusinessName) == "" {
		return nil, invalid("business_name", "Business name required")
	}
	if !agency.PermitVerified {
		return nil, invalid("permit_verified", "Business permit must be verified")
	}
	if len(agency.ServiceAreas) == 0 {
		return nil, invalid("service_areas", "Serviceable area required")
	}
	services, err := s.agencies.ListServices(ctx, agency.AgencyID)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, invalid("services", "At least one service required")
	}
	rates, err := s.agencies.ListRates(ctx, agency.AgencyID)
	if err != nil {
		return nil, err
	}
	if !hasRateForService(services, rates) {
		return nil, invalid("rates", "Provide at least one rate")
	}

	if err := s.agencies.SetStatus(ctx, agency.AgencyID, domain.AgencyStatusPublished); err != nil {
		return nil, err
	}
	agency.Status = domain.AgencyStatusPublished
	s.invalidateDirectory(ctx)
	s.logger.Info("Agency published", zap.String("agency_id", agency.AgencyID))
	return agency, nil
}

func hasRateForService(services []domain.AgencyService, rates []domain.AgencyRate) bool {
	offered := make(map[string]bool, len(services))
	for _, svc := range services {
		offered[svc.ServiceID] = true
	}
	for _, r := range rates {
		if offered[r.ServiceID] {
			return true
		}
	}
	return false
}

// Unpublish is unconditional.
func (s *ProviderService) Unpublish(ctx context.Context, c Caller) (*domain.Agency, error) {
	agency, err := agencyOf(ctx, s.agencies, c)
	if err != nil {
		return nil, err
	}
	if err := s.agencies.SetStatus(ctx, agency.AgencyID, domain.AgencyStatusDraft); err != nil {
		return nil, err
	}
	agency.Status = domain.AgencyStatusDraft
	s.invalidateDirectory(ctx)
	s.logger.Info("Agency unpublished", zap.String("agency_id", agency.AgencyID))
	return agency, nil
}

func (s *ProviderService) invalidateDirectory(ctx context.Context) {
	if s.directory != nil {
		s.directory.Invalidate(ctx)
	}
}
