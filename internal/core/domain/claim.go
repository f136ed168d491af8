package domain

import "time"

type ClaimType string

const (
	ClaimTypeCashless      ClaimType = "CASHLESS"
	ClaimTypeReimbursement ClaimType = "REIMBURSEMENT"
)

// Claim is a policy holder's submission for reimbursement. It owns up to
// MaxDocumentsPerClaim documents and at most one report.
type Claim struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	PolicyID         string    `json:"policy_id"`
	ClaimAmount      int64     `json:"claim_amount"`
	ClaimType        ClaimType `json:"claim_type"`
	DateOfIntimation time.Time `json:"date_of_intimation"`
	DateOfAdmission  time.Time `json:"date_of_admission"`
	Description      string    `json:"description,omitempty"`
	HospitalName     string    `json:"hospital_name,omitempty"`
	HospitalCity     string    `json:"hospital_city,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
