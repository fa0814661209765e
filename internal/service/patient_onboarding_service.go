package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

// StepKey step_data key for step n.
func StepKey(step int) string {
	return fmt.Sprintf("step_%d", step)
}

// PatientOnboardingService family-side multi-step patient intake
type PatientOnboardingService struct {
	sessions  repository.OnboardingSessionsRepository
	families  repository.FamiliesRepository
	documents DocumentStore
	bucket    string
	logger    *zap.Logger
}

func NewPatientOnboardingService(
	sessions repository.OnboardingSessionsRepository,
	families repository.FamiliesRepository,
	documents DocumentStore,
	bucket string,
	logger *zap.Logger,
) *PatientOnboardingService {
	return &PatientOnboardingService{
		sessions:  sessions,
		families:  families,
		documents: documents,
		bucket:    bucket,
		logger:    logger,
	}
}

// Start returns the family's active session, creating one at step 1 when there is none.
func (s *PatientOnboardingService) Start(ctx context.Context, c Caller) (*domain.OnboardingSession, error) {
	family, err := familyOf(ctx, s.families, c)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetActiveSession(ctx, family.FamilyID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.sessions.CreateSession(ctx, family.FamilyID)
}

// SaveStepRequest POST /onboarding/patient/save-step
type SaveStepRequest struct {
	Caller    Caller
	SessionID string
	Step      int
	Data      json.RawMessage
}

func (s *PatientOnboardingService) SaveStep(ctx context.Context, req SaveStepRequest) (*domain.OnboardingSession, error) {
	if err := lookupID("sessionId", req.SessionID); err != nil {
		return nil, err
	}
	if req.Step < domain.OnboardingFirstStep || req.Step > domain.OnboardingLastStep {
		return nil, invalid("step", fmt.Sprintf("step must be between %d and %d", domain.OnboardingFirstStep, domain.OnboardingLastStep))
	}
	data := req.Data
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage(`{}`)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, invalid("data", "data must be a JSON object")
	}

	family, err := familyOf(ctx, s.families, req.Caller)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.SaveStep(ctx, req.SessionID, family.FamilyID, req.Step, StepKey(req.Step), data)
	if err != nil {
		return nil, fromRepo(err)
	}
	return session, nil
}

// FinalizeResponse session plus the patient it created
type FinalizeResponse struct {
	Session *domain.OnboardingSession `json:"session"`
	Patient *domain.Patient           `json:"patient"`
}

// Finalize creates the Patient from the collected step data and completes the session.
func (s *PatientOnboardingService) Finalize(ctx context.Context, c Caller, sessionID string) (*FinalizeResponse, error) {
	if err := lookupID("sessionId", sessionID); err != nil {
		return nil, err
	}
	family, err := familyOf(ctx, s.families, c)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetSession(ctx, sessionID, family.FamilyID)
	if err != nil {
		return nil, fromRepo(err)
	}
	if session.Completed() {
		return nil, fmt.Errorf("%w: onboarding session already completed", ErrConflict)
	}

	patient, err := PatientFromStepData(session.StepData)
	if err != nil {
		return nil, err
	}
	patient.FamilyID = family.FamilyID

	done, created, err := s.sessions.FinalizeSession(ctx, session.SessionID, family.FamilyID, patient)
	if err != nil {
		return nil, fromRepo(err)
	}
	s.logger.Info("Patient onboarding finalized",
		zap.String("session_id", done.SessionID),
		zap.String("family_id", family.FamilyID),
		zap.String("patient_id", created.PatientID),
	)
	return &FinalizeResponse{Session: done, Patient: created}, nil
}

// Cancel removes the session's uploaded objects, then the session and its dependent rows.
// Storage failures are logged; the row cascade still runs.
func (s *PatientOnboardingService) Cancel(ctx context.Context, c Caller, sessionID string) error {
	if err := lookupID("sessionId", sessionID); err != nil {
		return err
	}
	family, err := familyOf(ctx, s.families, c)
	if err != nil {
		return err
	}
	if _, err := s.sessions.GetSession(ctx, sessionID, family.FamilyID); err != nil {
		return fromRepo(err)
	}

	files, err := s.sessions.ListFiles(ctx, sessionID)
	if err != nil {
		s.logger.Warn("Failed to list onboarding files", zap.String("session_id", sessionID), zap.Error(err))
	}
	if len(files) > 0 {
		paths := make([]string, 0, len(files))
		for _, f := range files {
			paths = append(paths, f.StoragePath)
		}
		switch {
		case s.documents == nil:
			s.logger.Warn("Onboarding files left in storage: document store is not configured",
				zap.String("session_id", sessionID), zap.Int("files", len(paths)))
		default:
			if err := s.documents.Remove(ctx, s.bucket, paths); err != nil {
				s.logger.Warn("Failed to remove onboarding files from storage",
					zap.String("session_id", sessionID), zap.Strings("paths", paths), zap.Error(err))
			}
		}
	}

	if err := s.sessions.DeleteSessionCascade(ctx, sessionID, family.FamilyID); err != nil {
		return fromRepo(err)
	}
	return nil
}

// PatientFromStepData flattens step_1..step_7 (later steps win) and reads the patient fields.
// Keys are accepted in snake_case or camelCase.
func PatientFromStepData(raw json.RawMessage) (*domain.Patient, error) {
	steps := map[string]map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &steps); err != nil {
			return nil, fmt.Errorf("failed to decode step data: %w", err)
		}
	}
	fields := map[string]any{}
	for n := domain.OnboardingFirstStep; n <= domain.OnboardingLastStep; n++ {
		for k, v := range steps[StepKey(n)] {
			fields[k] = v
		}
	}

	p := &domain.Patient{
		FirstName: stringField(fields, "first_name", "firstName"),
		LastName:  stringField(fields, "last_name", "lastName"),
		CareLevel: stringField(fields, "care_level", "careLevel"),
		Notes:     stringField(fields, "notes"),
	}
	if p.FirstName == "" {
		return nil, invalid("first_name", "Patient first name is required")
	}
	if p.LastName == "" {
		return nil, invalid("last_name", "Patient last name is required")
	}
	if dob := stringField(fields, "date_of_birth", "dateOfBirth"); dob != "" {
		t, err := parseDate(dob)
		if err != nil {
			return nil, invalid("date_of_birth", "date_of_birth must be YYYY-MM-DD")
		}
		p.DateOfBirth = &t
	}
	for _, key := range []string{"service_requirements", "serviceRequirements"} {
		if list, ok := fields[key].([]any); ok {
			for _, item := range list {
				if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
					p.ServiceRequirements = append(p.ServiceRequirements, strings.TrimSpace(str))
				}
			}
			break
		}
	}
	return p, nil
}

func stringField(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
