package domain

import (
	"encoding/json"
	"time"
)

const (
	OnboardingFirstStep = 1
	OnboardingLastStep  = 7
)

// OnboardingSession onboarding_sessions table.
// A family has at most one session with CompletedAt == nil; completed sessions are
// superseded by a new one, never reopened.
type OnboardingSession struct {
	SessionID   string          `db:"session_id" json:"id"`
	FamilyID    string          `db:"family_id" json:"familyId"`
	PatientID   *string         `db:"patient_id" json:"patientId,omitempty"`
	CurrentStep int             `db:"current_step" json:"currentStep"`
	StepData    json.RawMessage `db:"step_data" json:"stepData"`
	CompletedAt *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// Completed reports whether the session has been finalized.
func (s *OnboardingSession) Completed() bool {
	return s.CompletedAt != nil
}

// OnboardingFile onboarding_files: an upload attached to a session
type OnboardingFile struct {
	FileID      string    `db:"file_id" json:"id"`
	SessionID   string    `db:"session_id" json:"sessionId"`
	StoragePath string    `db:"storage_path" json:"storagePath"`
	FileName    string    `db:"file_name" json:"fileName"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
