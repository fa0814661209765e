package domain

import (
	"time"

	"github.com/lib/pq"
)

// Family families table (one per family-role account)
type Family struct {
	FamilyID  string    `db:"family_id" json:"familyId"`
	UserID    string    `db:"user_id" json:"userId"`
	FullName  string    `db:"full_name" json:"fullName"`
	Phone     string    `db:"phone" json:"phone"`
	City      string    `db:"city" json:"city"`
	State     string    `db:"state" json:"state"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Patient patients table: a care recipient owned by exactly one Family.
// CareLevel and ServiceRequirements feed the upstream matching process.
type Patient struct {
	PatientID           string         `db:"patient_id" json:"patientId"`
	FamilyID            string         `db:"family_id" json:"familyId"`
	FirstName           string         `db:"first_name" json:"firstName"`
	LastName            string         `db:"last_name" json:"lastName"`
	DateOfBirth         *time.Time     `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	CareLevel           string         `db:"care_level" json:"careLevel"`
	ServiceRequirements pq.StringArray `db:"service_requirements" json:"serviceRequirements"`
	Notes               string         `db:"notes" json:"notes"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
}
