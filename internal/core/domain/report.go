package domain

import (
	"encoding/json"
	"time"
)

// ApprovalStatus is the assessor's tri-state verdict on a report.
type ApprovalStatus string

const (
	ApprovalYes   ApprovalStatus = "YES"
	ApprovalNo    ApprovalStatus = "NO"
	ApprovalStall ApprovalStatus = "STALL"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalYes, ApprovalNo, ApprovalStall:
		return true
	}
	return false
}

// Report is the single AI-assisted assessment artifact for a claim.
// It owns exactly one AlternateTreatments and one DocWiseReport.
type Report struct {
	ID              string         `json:"id"`
	ClaimID         string         `json:"claim_id"`
	UserID          string         `json:"user_id"`
	CombinedSummary string         `json:"combined_summary"`
	Notes           string         `json:"notes,omitempty"`
	Approved        ApprovalStatus `json:"approved"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// AlternateTreatments holds the serialized treatment options text for a
// report.
type AlternateTreatments struct {
	ID       string `json:"id"`
	ReportID string `json:"report_id"`
	Text     string `json:"text"`
}

// DocWiseReport holds the serialized per-document findings for a report.
type DocWiseReport struct {
	ID       string `json:"id"`
	ReportID string `json:"report_id"`
	Text     string `json:"text"`
}

// ReportBundle is a report together with its owned artifacts.
type ReportBundle struct {
	Report              Report              `json:"report"`
	AlternateTreatments AlternateTreatments `json:"alternate_treatments"`
	DocWiseReport       DocWiseReport       `json:"doc_wise_report"`
}

// DocFinding is one structured per-document finding returned by the
// analysis service. The payload is opaque to the pipeline beyond shape
// validation.
type DocFinding = json.RawMessage

// Attachment is one staged local file handed to the analysis service.
type Attachment struct {
	Path     string
	MimeType string
}

// ReportDraft carries the three generation artifacts before they are
// persisted as one atomic unit.
type ReportDraft struct {
	CombinedSummary string
	Treatments      string
	DocWise         string
}

// ReportUpdate is a partial update to a report's assessor-owned fields.
// Nil pointers leave the stored value untouched.
type ReportUpdate struct {
	CombinedSummary *string
	Notes           *string
	Approved        ApprovalStatus
}
