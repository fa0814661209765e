package domain

import "time"

// ContractStatus contracts.status
type ContractStatus string

const (
	ContractStatusDraft       ContractStatus = "draft"
	ContractStatusSent        ContractStatus = "sent"
	ContractStatusUnderReview ContractStatus = "under_review"
	ContractStatusAccepted    ContractStatus = "accepted"
	ContractStatusRejected    ContractStatus = "rejected"
)

// Valid reports whether s is one of the five contract statuses.
func (s ContractStatus) Valid() bool {
	switch s {
	case ContractStatusDraft, ContractStatusSent, ContractStatusUnderReview,
		ContractStatusAccepted, ContractStatusRejected:
		return true
	}
	return false
}

// ContractAction an actor-triggered transition
type ContractAction string

const (
	ContractActionSend    ContractAction = "send"    // provider
	ContractActionReview  ContractAction = "review"  // family
	ContractActionAccept  ContractAction = "accept"  // family
	ContractActionDecline ContractAction = "decline" // family
)

// ContractTransition one row of the lifecycle table
type ContractTransition struct {
	From []ContractStatus
	To   ContractStatus
}

// ContractTransitions lifecycle table keyed by action.
// accept and decline include their own target in From so a repeated submit
// matches again and leaves the status unchanged.
var ContractTransitions = map[ContractAction]ContractTransition{
	ContractActionSend: {
		From: []ContractStatus{ContractStatusDraft},
		To:   ContractStatusSent,
	},
	ContractActionReview: {
		From: []ContractStatus{ContractStatusSent},
		To:   ContractStatusUnderReview,
	},
	ContractActionAccept: {
		From: []ContractStatus{ContractStatusSent, ContractStatusUnderReview, ContractStatusAccepted},
		To:   ContractStatusAccepted,
	},
	ContractActionDecline: {
		From: []ContractStatus{ContractStatusSent, ContractStatusUnderReview, ContractStatusRejected},
		To:   ContractStatusRejected,
	},
}

// CanTransition reports whether action may be applied to a contract in status from.
func CanTransition(action ContractAction, from ContractStatus) bool {
	t, ok := ContractTransitions[action]
	if !ok {
		return false
	}
	for _, s := range t.From {
		if s == from {
			return true
		}
	}
	return false
}

// Contract contracts table.
// Terms (rate, billing, payment, dates) are treated as frozen once accepted; only the
// workflow enforces it.
type Contract struct {
	ContractID    string         `db:"contract_id" json:"id"`
	AgencyID      string         `db:"agency_id" json:"agencyId"`
	PatientID     string         `db:"patient_id" json:"patientId"`
	FamilyID      string         `db:"family_id" json:"familyId"`
	Status        ContractStatus `db:"status" json:"status"`
	RateMinor     int64          `db:"rate_minor" json:"rate"`
	BillingType   string         `db:"billing_type" json:"billingType"`
	PaymentMethod string         `db:"payment_method" json:"paymentMethod"`
	StartDate     *time.Time     `db:"start_date" json:"startDate,omitempty"`
	EndDate       *time.Time     `db:"end_date" json:"endDate,omitempty"`
	Notes         string         `db:"notes" json:"notes"`
	SentAt        *time.Time     `db:"sent_at" json:"sentAt,omitempty"`
	AcceptedAt    *time.Time     `db:"accepted_at" json:"acceptedAt,omitempty"`
	RejectedAt    *time.Time     `db:"rejected_at" json:"rejectedAt,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}
