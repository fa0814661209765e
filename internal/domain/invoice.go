package domain

import (
	"encoding/json"
	"time"
)

// InvoiceStatus invoices.status
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusOpen          InvoiceStatus = "open"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusUncollectible InvoiceStatus = "uncollectible"
	InvoiceStatusVoid          InvoiceStatus = "void"
)

// InvoiceLine one entry of invoices.lines (JSONB); amounts in minor units
type InvoiceLine struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitAmount  int64  `json:"unitAmount"`
	Amount      int64  `json:"amount"`
}

// Invoice invoices table; all amounts are integer minor units of Currency.
type Invoice struct {
	InvoiceID      string          `db:"invoice_id" json:"id"`
	ContractID     string          `db:"contract_id" json:"contractId"`
	AgencyID       string          `db:"agency_id" json:"agencyId"`
	PatientID      string          `db:"patient_id" json:"patientId"`
	FamilyID       string          `db:"family_id" json:"familyId"`
	Status         InvoiceStatus   `db:"status" json:"status"`
	Currency       string          `db:"currency" json:"currency"`
	AmountSubtotal int64           `db:"amount_subtotal" json:"amountSubtotal"`
	AmountTax      int64           `db:"amount_tax" json:"amountTax"`
	AmountTotal    int64           `db:"amount_total" json:"amountTotal"`
	DueDate        time.Time       `db:"due_date" json:"dueDate"`
	Lines          []InvoiceLine   `db:"lines" json:"lines"`
	Meta           json.RawMessage `db:"meta" json:"meta,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}
