package domain

import "time"

// Severity notifications.severity
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// Notification notifications table, addressed to a role plus the agency or family id.
type Notification struct {
	NotificationID string    `db:"notification_id" json:"id"`
	Role           Role      `db:"role" json:"role"`
	AgencyID       *string   `db:"agency_id" json:"agencyId,omitempty"`
	FamilyID       *string   `db:"family_id" json:"familyId,omitempty"`
	Title          string    `db:"title" json:"title"`
	Body           string    `db:"body" json:"body"`
	Severity       Severity  `db:"severity" json:"severity"`
	ContractID     *string   `db:"contract_id" json:"contractId,omitempty"`
	PatientID      *string   `db:"patient_id" json:"patientId,omitempty"`
	IsRead         bool      `db:"is_read" json:"isRead"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// TargetID the agency id for provider notifications, the family id otherwise.
func (n *Notification) TargetID() string {
	if n.Role == RoleProvider && n.AgencyID != nil {
		return *n.AgencyID
	}
	if n.FamilyID != nil {
		return *n.FamilyID
	}
	return ""
}
