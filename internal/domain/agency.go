package domain

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// AgencyStatus agencies.status
type AgencyStatus string

const (
	AgencyStatusDraft     AgencyStatus = "draft"
	AgencyStatusPublished AgencyStatus = "published"
)

// Agency agencies table (one per provider-role account)
type Agency struct {
	AgencyID            string         `db:"agency_id" json:"agencyId"`
	UserID              string         `db:"user_id" json:"userId"`
	BusinessName        string         `db:"business_name" json:"businessName"`
	ContactEmail        string         `db:"contact_email" json:"contactEmail"`
	ContactPhone        string         `db:"contact_phone" json:"contactPhone"`
	StreetAddress       string         `db:"street_address" json:"streetAddress"`
	City                string         `db:"city" json:"city"`
	State               string         `db:"state" json:"state"`
	ZipCode             string         `db:"zip_code" json:"zipCode"`
	Description         string         `db:"description" json:"description"`
	PermitNumber        string         `db:"permit_number" json:"permitNumber"`
	PermitVerified      bool           `db:"permit_verified" json:"permitVerified"`
	ServiceAreas        pq.StringArray `db:"service_areas" json:"serviceAreas"`
	Status              AgencyStatus   `db:"status" json:"status"`
	OnboardingCompleted bool           `db:"onboarding_completed" json:"onboardingCompleted"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updatedAt"`
}

// BusinessInfoComplete reports whether the onboarding step-1 fields are all populated.
func (a *Agency) BusinessInfoComplete() bool {
	for _, v := range []string{
		a.BusinessName, a.ContactEmail, a.ContactPhone,
		a.StreetAddress, a.City, a.State, a.ZipCode,
	} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// BusinessInfo the editable step-1 subset of Agency
type BusinessInfo struct {
	BusinessName  string `json:"businessName"`
	ContactEmail  string `json:"contactEmail"`
	ContactPhone  string `json:"contactPhone"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zipCode"`
	Description   string `json:"description"`
	PermitNumber  string `json:"permitNumber"`
}

// AgencyService agency_services: a service the agency offers
type AgencyService struct {
	AgencyID    string `db:"agency_id" json:"-"`
	ServiceID   string `db:"service_id" json:"serviceId"`
	ServiceName string `db:"service_name" json:"serviceName"`
}

// AgencyStrength agency_strengths: strength points allocated to a service
type AgencyStrength struct {
	AgencyID  string `db:"agency_id" json:"-"`
	ServiceID string `db:"service_id" json:"serviceId"`
	Points    int    `db:"points" json:"points"`
}

// RateType agency_rates.rate_type
type RateType string

const (
	RateTypeHourly RateType = "hourly"
	RateTypeDaily  RateType = "daily"
	RateTypeVisit  RateType = "visit"
)

// Valid reports whether t is a known rate type.
func (t RateType) Valid() bool {
	return t == RateTypeHourly || t == RateTypeDaily || t == RateTypeVisit
}

// AgencyRate agency_rates: amount in minor units
type AgencyRate struct {
	AgencyID    string   `db:"agency_id" json:"-"`
	ServiceID   string   `db:"service_id" json:"serviceId"`
	RateType    RateType `db:"rate_type" json:"rateType"`
	AmountMinor int64    `db:"amount_minor" json:"amountMinor"`
}
