package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

// SessionInvalidator revokes every session of an account.
type SessionInvalidator interface {
	Revoke(ctx context.Context, accountID string) error
}

// OnboardingStepPath client route for provider onboarding step n.
func OnboardingStepPath(step int) string {
	return fmt.Sprintf("/provider/onboarding/step-%d", step)
}

// onboardingGate one prerequisite; the first failing gate decides nextStep.
type onboardingGate struct {
	step   int
	name   string
	passed func(ctx context.Context, a *domain.Agency) (bool, error)
}

// ProviderOnboardingService provider onboarding-completion checker
type ProviderOnboardingService struct {
	profiles repository.ProfilesRepository
	agencies repository.AgenciesRepository
	sessions SessionInvalidator
	logger   *zap.Logger
	gates    []onboardingGate
}

func NewProviderOnboardingService(
	profiles repository.ProfilesRepository,
	agencies repository.AgenciesRepository,
	documents DocumentStore,
	documentsBucket string,
	sessions SessionInvalidator,
	logger *zap.Logger,
) *ProviderOnboardingService {
	s := &ProviderOnboardingService{
		profiles: profiles,
		agencies: agencies,
		sessions: sessions,
		logger:   logger,
	}
	atLeastOne := func(count func(context.Context, string) (int, error)) func(context.Context, *domain.Agency) (bool, error) {
		return func(ctx context.Context, a *domain.Agency) (bool, error) {
			n, err := count(ctx, a.AgencyID)
			return n > 0, err
		}
	}
	s.gates = []onboardingGate{
		{step: 1, name: "business_info", passed: func(_ context.Context, a *domain.Agency) (bool, error) {
			return a.BusinessInfoComplete(), nil
		}},
		{step: 2, name: "services", passed: atLeastOne(agencies.CountServices)},
		{step: 3, name: "strengths", passed: atLeastOne(agencies.CountStrengths)},
		{step: 4, name: "rates", passed: atLeastOne(agencies.CountRates)},
		{step: 5, name: "documents", passed: func(ctx context.Context, a *domain.Agency) (bool, error) {
			if documents == nil {
				return false, errors.New("document store is not configured")
			}
			objs, err := documents.List(ctx, documentsBucket, a.AgencyID+"/")
			return len(objs) > 0, err
		}},
	}
	return s
}

// CheckOnboardingRequest POST /onboarding/check
type CheckOnboardingRequest struct {
	AccountID string
}

type CheckOnboardingResponse struct {
	IsComplete bool   `json:"isComplete"`
	NextStep   string `json:"nextStep,omitempty"`
}

func (s *ProviderOnboardingService) Check(ctx context.Context, req CheckOnboardingRequest) (*CheckOnboardingResponse, error) {
	if req.AccountID == "" {
		return nil, ErrUnauthenticated
	}

	if _, err := s.profiles.GetProfile(ctx, req.AccountID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		s.logger.Warn("Onboarding check for account without profile; revoking session",
			zap.String("account_id", req.AccountID))
		if s.sessions != nil {
			if rerr := s.sessions.Revoke(ctx, req.AccountID); rerr != nil {
				s.logger.Error("Session revoke failed", zap.String("account_id", req.AccountID), zap.Error(rerr))
			}
		}
		return nil, ErrAccountMissing
	}

	agency, err := s.agencies.GetAgencyByUser(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &CheckOnboardingResponse{NextStep: OnboardingStepPath(1)}, nil
		}
		return nil, err
	}
	if agency.OnboardingCompleted {
		return &CheckOnboardingResponse{IsComplete: true}, nil
	}

	for _, g := range s.gates {
		ok, err := g.passed(ctx, agency)
		if err != nil {
			return nil, fmt.Errorf("onboarding gate %s: %w", g.name, err)
		}
		if !ok {
			return &CheckOnboardingResponse{NextStep: OnboardingStepPath(g.step)}, nil
		}
	}

	flipped, err := s.agencies.MarkOnboardingCompleted(ctx, agency.AgencyID)
	if err != nil {
		return nil, err
	}
	if flipped {
		s.logger.Info("Provider onboarding completed", zap.String("agency_id", agency.AgencyID))
	}
	return &CheckOnboardingResponse{IsComplete: true}, nil
}
