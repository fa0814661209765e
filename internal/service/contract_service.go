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

// ContractService contract lifecycle: provider creates/sends, family reviews/accepts/declines.
type ContractService struct {
	contracts     repository.ContractsRepository
	families      repository.FamiliesRepository
	agencies      repository.AgenciesRepository
	notifications *NotificationService
	logger        *zap.Logger
}

func NewContractService(
	contracts repository.ContractsRepository,
	families repository.FamiliesRepository,
	agencies repository.AgenciesRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *ContractService {
	return &ContractService{
		contracts:     contracts,
		families:      families,
		agencies:      agencies,
		notifications: notifications,
		logger:        logger,
	}
}

// CreateContractRequest POST /contracts/create
type CreateContractRequest struct {
	Caller        Caller
	AgencyID      string
	PatientID     string
	RateMinor     int64
	BillingType   string
	PaymentMethod string
	StartDate     *time.Time
	EndDate       *time.Time
	Notes         string
	Status        domain.ContractStatus // draft (default) or sent
}

func (s *ContractService) Create(ctx context.Context, req CreateContractRequest) (*domain.Contract, error) {
	agency, err := agencyOf(ctx, s.agencies, req.Caller)
	if err != nil {
		return nil, err
	}
	if req.AgencyID != "" && req.AgencyID != agency.AgencyID {
		return nil, fmt.Errorf("%w: agency does not belong to caller", ErrForbidden)
	}
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, required("patientId")
	}
	if !isUUID(req.PatientID) {
		return nil, invalid("patientId", "patient not found")
	}
	if req.RateMinor < 0 {
		return nil, invalid("rate", "rate must not be negative")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, invalid("endDate", "endDate must not be before startDate")
	}
	status := req.Status
	if status == "" {
		status = domain.ContractStatusDraft
	}
	if status != domain.ContractStatusDraft && status != domain.ContractStatusSent {
		return nil, invalid("status", "status must be draft or sent")
	}

	// family_id always comes from the patient row
	patient, err := s.families.GetPatient(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("patientId", "patient not found")
		}
		return nil, err
	}

	contract, err := s.contracts.CreateContract(ctx, &domain.Contract{
		AgencyID:      agency.AgencyID,
		PatientID:     patient.PatientID,
		FamilyID:      patient.FamilyID,
		Status:        status,
		RateMinor:     req.RateMinor,
		BillingType:   strings.TrimSpace(req.BillingType),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Contract created",
		zap.String("contract_id", contract.ContractID),
		zap.String("agency_id", contract.AgencyID),
		zap.String("status", string(contract.Status)),
	)
	if contract.Status == domain.ContractStatusSent {
		s.notifyFamily(ctx, contract, agency.BusinessName)
	}
	return contract, nil
}

// ContractActionRequest accept / decline / review / send
type ContractActionRequest struct {
	Caller     Caller
	ContractID string
}

func (s *ContractService) Accept(ctx context.Context, req ContractActionRequest) (*domain.Contract, error) {
	c, err := s.familyTransition(ctx, req, domain.ContractActionAccept)
	if err != nil {
		return nil, err
	}
	s.notifyAgency(ctx, c, domain.SeveritySuccess, "Contract accepted",
		"The family accepted your contract.")
	return c, nil
}

func (s *ContractService) Decline(ctx context.Context, req ContractActionRequest) (*domain.Contract, error) {
	c, err := s.familyTransition(ctx, req, domain.ContractActionDecline)
	if err != nil {
		return nil, err
	}
	s.notifyAgency(ctx, c, domain.SeverityError, "Contract declined",
		"The family declined your contract.")
	return c, nil
}

func (s *ContractService) Review(ctx context.Context, req ContractActionRequest) (*domain.Contract, error) {
	c, err := s.familyTransition(ctx, req, domain.ContractActionReview)
	if err != nil {
		return nil, err
	}
	s.notifyAgency(ctx, c, domain.SeverityInfo, "Contract under review",
		"The family is reviewing your contract.")
	return c, nil
}

// Send provider moves a draft to sent.
func (s *ContractService) Send(ctx context.Context, req ContractActionRequest) (*domain.Contract, error) {
	if err := lookupID("id", req.ContractID); err != nil {
		return nil, err
	}
	agency, err := agencyOf(ctx, s.agencies, req.Caller)
	if err != nil {
		return nil, err
	}
	c, err := s.contracts.TransitionForAgency(ctx, req.ContractID, agency.AgencyID,
		domain.ContractTransitions[domain.ContractActionSend])
	if err != nil {
		return nil, fromRepo(err)
	}
	s.notifyFamily(ctx, c, agency.BusinessName)
	return c, nil
}

// familyTransition the update predicate carries family ownership and the allowed source
// statuses; anything else matches zero rows and surfaces as ErrNotFound.
func (s *ContractService) familyTransition(ctx context.Context, req ContractActionRequest, action domain.ContractAction) (*domain.Contract, error) {
	if err := lookupID("id", req.ContractID); err != nil {
		return nil, err
	}
	family, err := familyOf(ctx, s.families, req.Caller)
	if err != nil {
		return nil, err
	}
	c, err := s.contracts.TransitionForFamily(ctx, req.ContractID, family.FamilyID, domain.ContractTransitions[action])
	if err != nil {
		return nil, fromRepo(err)
	}
	s.logger.Info("Contract transitioned",
		zap.String("contract_id", c.ContractID),
		zap.String("action", string(action)),
		zap.String("status", string(c.Status)),
	)
	return c, nil
}

func (s *ContractService) notifyAgency(ctx context.Context, c *domain.Contract, severity domain.Severity, title, body string) {
	s.notifications.Notify(ctx, &domain.Notification{
		Role:       domain.RoleProvider,
		AgencyID:   strPtr(c.AgencyID),
		Title:      title,
		Body:       body,
		Severity:   severity,
		ContractID: strPtr(c.ContractID),
		PatientID:  strPtr(c.PatientID),
	})
}

func (s *ContractService) notifyFamily(ctx context.Context, c *domain.Contract, agencyName string) {
	body := "You have received a new contract."
	if agencyName != "" {
		body = agencyName + " sent you a contract."
	}
	s.notifications.Notify(ctx, &domain.Notification{
		Role:       domain.RoleFamily,
		FamilyID:   strPtr(c.FamilyID),
		Title:      "New contract received",
		Body:       body,
		Severity:   domain.SeverityInfo,
		ContractID: strPtr(c.ContractID),
		PatientID:  strPtr(c.PatientID),
	})
}

// List the caller's contracts (family or agency side).
func (s *ContractService) List(ctx context.Context, c Caller, status domain.ContractStatus) ([]*domain.Contract, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("status", "unknown contract status")
	}
	filter := repository.ContractsFilter{Status: status}
	switch c.Role {
	case domain.RoleFamily:
		f, err := familyOf(ctx, s.families, c)
		if err != nil {
			return nil, err
		}
		filter.FamilyID = f.FamilyID
	case domain.RoleProvider:
		a, err := agencyOf(ctx, s.agencies, c)
		if err != nil {
			return nil, err
		}
		filter.AgencyID = a.AgencyID
	default:
		if c.AccountID == "" {
			return nil, ErrUnauthenticated
		}
		return nil, ErrForbidden
	}
	return s.contracts.ListContracts(ctx, filter)
}
