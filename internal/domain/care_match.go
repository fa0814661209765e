package domain

import (
	"time"

	"github.com/lib/pq"
)

// CareMatch care_matches: Patient x Agency pairing scored upstream (read-only here)
type CareMatch struct {
	MatchID   string         `db:"match_id" json:"id"`
	PatientID string         `db:"patient_id" json:"patientId"`
	AgencyID  string         `db:"agency_id" json:"agencyId"`
	Score     float64        `db:"score" json:"score"`
	Tags      pq.StringArray `db:"tags" json:"tags"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}
