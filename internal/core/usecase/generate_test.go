package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/medassure/claims-backoffice/internal/core/domain"
	"github.com/medassure/claims-backoffice/internal/core/ports"
)

type reportRepoFake struct {
	bundle *domain.ReportBundle
	getErr error

	deletedByClaim []string
	deletedByID    []string
	created        *domain.Report
	treatments     string
	docWise        string
	createErr      error

	updates           []domain.ReportUpdate
	updatedTreatments string
	updatedDocWise    string
}

func (f *reportRepoFake) GetByID(_ context.Context, id string) (*domain.ReportBundle, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.bundle == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "get report", errors.New(id))
	}
	copyBundle := *f.bundle
	return &copyBundle, nil
}

func (f *reportRepoFake) GetByClaim(_ context.Context, claimID string) (*domain.ReportBundle, error) {
	return f.GetByID(context.Background(), claimID)
}

func (f *reportRepoFake) CreateBundle(_ context.Context, report *domain.Report, treatments, docWise string) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyReport := *report
	f.created = &copyReport
	f.treatments = treatments
	f.docWise = docWise
	return nil
}

func (f *reportRepoFake) Update(_ context.Context, _ string, update domain.ReportUpdate) error {
	f.updates = append(f.updates, update)
	return nil
}

func (f *reportRepoFake) UpdateTreatments(_ context.Context, _, text string) error {
	f.updatedTreatments = text
	return nil
}

func (f *reportRepoFake) UpdateDocWise(_ context.Context, _, text string) error {
	f.updatedDocWise = text
	return nil
}

func (f *reportRepoFake) Delete(_ context.Context, id string) error {
	f.deletedByID = append(f.deletedByID, id)
	return nil
}

func (f *reportRepoFake) DeleteByClaim(_ context.Context, claimID string) error {
	f.deletedByClaim = append(f.deletedByClaim, claimID)
	return nil
}

type stagingFake struct {
	err      error
	acquired []*stagingDirFake
}

func (f *stagingFake) Acquire() (ports.StagingDir, error) {
	if f.err != nil {
		return nil, f.err
	}
	dir := &stagingDirFake{root: fmt.Sprintf("/tmp/gen-%d", len(f.acquired))}
	f.acquired = append(f.acquired, dir)
	return dir, nil
}

type conversationFake struct {
	turns        []string
	scanFindings []domain.DocFinding
	textFindings []domain.DocFinding
	treatments   string
	summary      string
	errOnTurn    string

	scanFiles      []domain.Attachment
	textFiles      []domain.Attachment
	treatmentFiles []domain.Attachment
	summaryFiles   []domain.Attachment
}

func (f *conversationFake) turn(name string) error {
	f.turns = append(f.turns, name)
	if f.errOnTurn == name {
		return domain.WrapError(domain.ErrUpstreamGeneration, name, errors.New("service failure"))
	}
	return nil
}

func (f *conversationFake) AnalyzeScans(_ context.Context, files []domain.Attachment) ([]domain.DocFinding, error) {
	f.scanFiles = files
	if err := f.turn("scan"); err != nil {
		return nil, err
	}
	return f.scanFindings, nil
}

func (f *conversationFake) AnalyzeTexts(_ context.Context, files []domain.Attachment) ([]domain.DocFinding, error) {
	f.textFiles = files
	if err := f.turn("text"); err != nil {
		return nil, err
	}
	return f.textFindings, nil
}

func (f *conversationFake) TreatmentOptions(_ context.Context, files []domain.Attachment) (string, error) {
	f.treatmentFiles = files
	if err := f.turn("treatment"); err != nil {
		return "", err
	}
	return f.treatments, nil
}

func (f *conversationFake) ClinicalSummary(_ context.Context, files []domain.Attachment) (string, error) {
	f.summaryFiles = files
	if err := f.turn("summary"); err != nil {
		return "", err
	}
	return f.summary, nil
}

type analystFake struct {
	conv *conversationFake
}

func (f *analystFake) StartConversation() ports.AnalysisConversation { return f.conv }

func newGenerateFixture(docs []domain.Document, conv *conversationFake) (*GenerateReportUseCase, *docRepoFake, *reportRepoFake, *stagingFake, *transferFake) {
	docRepo := &docRepoFake{docs: docs}
	reportRepo := &reportRepoFake{}
	staging := &stagingFake{}
	xfer := &transferFake{}
	uc := NewGenerateReportUseCase(
		&claimRepoFake{claim: testClaim()},
		docRepo,
		reportRepo,
		&objectStoreFake{},
		xfer,
		staging,
		&analystFake{conv: conv},
	)
	return uc, docRepo, reportRepo, staging, xfer
}

func mixedDocs() []domain.Document {
	return []domain.Document{
		{ID: "d1", ClaimID: "c1", UserID: "u1", Name: "c1_scan.jpg", DocType: domain.DocTypeScan},
		{ID: "d2", ClaimID: "c1", UserID: "u1", Name: "c1_text.pdf", DocType: domain.DocTypeText},
	}
}

func TestGenerateFullReport(t *testing.T) {
	conv := &conversationFake{
		scanFindings: []domain.DocFinding{json.RawMessage(`{"MedicalReportName":"scan-1"}`)},
		textFindings: []domain.DocFinding{json.RawMessage(`{"MedicalReportName":"text-1"}`)},
		treatments:   `{"TreatmentDetails":[{"Cost":"1200"}]}`,
		summary:      `{"Summary":"stable"}`,
	}
	uc, _, reports, staging, _ := newGenerateFixture(mixedDocs(), conv)

	report, err := uc.Generate(context.Background(), assessorCaller, "c1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if report.UserID != "u1" || report.ClaimID != "c1" {
		t.Fatalf("report owner/claim mismatch: %+v", report)
	}
	if report.Approved != domain.ApprovalStall {
		t.Fatalf("new reports start stalled, got %s", report.Approved)
	}
	if len(reports.deletedByClaim) != 1 {
		t.Fatalf("expected previous report cleared, got %v", reports.deletedByClaim)
	}
	if reports.created == nil {
		t.Fatalf("expected report bundle persisted")
	}
	if strings.Contains(reports.created.CombinedSummary, "\n") {
		t.Fatalf("summary must carry no newlines")
	}

	var findings []json.RawMessage
	if err := json.Unmarshal([]byte(reports.docWise), &findings); err != nil {
		t.Fatalf("doc-wise payload is not a JSON array: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if !strings.Contains(string(findings[0]), "scan-1") || !strings.Contains(string(findings[1]), "text-1") {
		t.Fatalf("expected SCAN finding first, TEXT second: %s", reports.docWise)
	}

	wantTurns := []string{"scan", "text", "treatment", "summary"}
	if !reflect.DeepEqual(conv.turns, wantTurns) {
		t.Fatalf("turn order %v, want %v", conv.turns, wantTurns)
	}
	if len(conv.treatmentFiles) != 2 || len(conv.summaryFiles) != 2 {
		t.Fatalf("treatment/summary turns must see all files")
	}
	if len(staging.acquired) != 1 || !staging.acquired[0].released {
		t.Fatalf("staging dir must be released")
	}
}

func TestGenerateRequiresAssessor(t *testing.T) {
	uc, _, reports, staging, _ := newGenerateFixture(mixedDocs(), &conversationFake{})

	_, err := uc.Generate(context.Background(), ownerCaller, "c1")
	if !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(reports.deletedByClaim) != 0 || reports.created != nil || len(staging.acquired) != 0 {
		t.Fatalf("expected no side effects")
	}
}

func TestGenerateNoDocuments(t *testing.T) {
	uc, _, reports, staging, _ := newGenerateFixture(nil, &conversationFake{})

	_, err := uc.Generate(context.Background(), assessorCaller, "c1")
	if !domain.IsKind(err, domain.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
	if reports.created != nil {
		t.Fatalf("expected no report persisted")
	}
	if len(staging.acquired) != 0 {
		t.Fatalf("expected no staging dir acquired")
	}
}

func TestGenerateDownloadFailureAbortsAndCleansUp(t *testing.T) {
	conv := &conversationFake{}
	uc, _, reports, staging, xfer := newGenerateFixture(mixedDocs(), conv)
	xfer.failPaths = map[string]error{
		"/tmp/gen-0/c1_text.pdf": errors.New("get status 503"),
	}

	_, err := uc.Generate(context.Background(), assessorCaller, "c1")
	if !domain.IsKind(err, domain.ErrUpstreamTransfer) {
		t.Fatalf("expected ErrUpstreamTransfer, got %v", err)
	}
	if len(conv.turns) != 0 {
		t.Fatalf("no analysis turns after a failed download, got %v", conv.turns)
	}
	if reports.created != nil {
		t.Fatalf("expected no report persisted")
	}
	if len(staging.acquired) != 1 || !staging.acquired[0].released {
		t.Fatalf("staging dir must still be released")
	}
}

func TestGenerateSkipsUnrecognizedDocTypes(t *testing.T) {
	docs := append(mixedDocs(), domain.Document{
		ID: "d3", ClaimID: "c1", UserID: "u1", Name: "c1_other.bin", DocType: "VIDEO",
	})
	conv := &conversationFake{
		scanFindings: []domain.DocFinding{json.RawMessage(`{"MedicalReportName":"scan-1"}`)},
		textFindings: []domain.DocFinding{json.RawMessage(`{"MedicalReportName":"text-1"}`)},
		treatments:   "t",
		summary:      "s",
	}
	uc, _, reports, _, _ := newGenerateFixture(docs, conv)

	if _, err := uc.Generate(context.Background(), assessorCaller, "c1"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(conv.scanFiles) != 1 || len(conv.textFiles) != 1 {
		t.Fatalf("classification turns must only see recognized types")
	}
	// All three files still feed the treatment and summary turns.
	if len(conv.treatmentFiles) != 3 || len(conv.summaryFiles) != 3 {
		t.Fatalf("treatment/summary turns must see every downloaded file")
	}
	var findings []json.RawMessage
	if err := json.Unmarshal([]byte(reports.docWise), &findings); err != nil || len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %s", reports.docWise)
	}
}

func TestGenerateGenerationFailureLeavesNoReport(t *testing.T) {
	conv := &conversationFake{errOnTurn: "treatment",
		scanFindings: []domain.DocFinding{json.RawMessage(`{}`)},
		textFindings: []domain.DocFinding{json.RawMessage(`{}`)},
	}
	uc, _, reports, staging, _ := newGenerateFixture(mixedDocs(), conv)

	_, err := uc.Generate(context.Background(), assessorCaller, "c1")
	if !domain.IsKind(err, domain.ErrUpstreamGeneration) {
		t.Fatalf("expected ErrUpstreamGeneration, got %v", err)
	}
	if reports.created != nil {
		t.Fatalf("expected no report persisted")
	}
	if !staging.acquired[0].released {
		t.Fatalf("staging dir must be released")
	}
}

func TestGeneratePersistenceFailurePropagates(t *testing.T) {
	conv := &conversationFake{treatments: "t", summary: "s"}
	uc, _, reports, staging, _ := newGenerateFixture(mixedDocs(), conv)
	reports.createErr = domain.WrapError(domain.ErrPersistence, "tx", errors.New("commit failed"))

	_, err := uc.Generate(context.Background(), assessorCaller, "c1")
	if !domain.IsKind(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if !staging.acquired[0].released {
		t.Fatalf("staging dir must be released")
	}
}

func TestSummaryOnlyDoesNotPersist(t *testing.T) {
	conv := &conversationFake{summary: "clinical summary"}
	uc, _, reports, staging, _ := newGenerateFixture(mixedDocs(), conv)
	reports.bundle = &domain.ReportBundle{Report: domain.Report{ID: "r1", ClaimID: "c1", UserID: "u1"}}

	summary, err := uc.SummaryOnly(context.Background(), assessorCaller, "r1")
	if err != nil {
		t.Fatalf("SummaryOnly() error = %v", err)
	}
	if summary != "clinical summary" {
		t.Fatalf("unexpected summary %q", summary)
	}
	if reports.created != nil {
		t.Fatalf("variants must not persist")
	}
	if !reflect.DeepEqual(conv.turns, []string{"summary"}) {
		t.Fatalf("expected single summary turn, got %v", conv.turns)
	}
	if !staging.acquired[0].released {
		t.Fatalf("staging dir must be released")
	}
}

func TestDocWiseOnlyKeepsScanThenTextOrder(t *testing.T) {
	conv := &conversationFake{
		scanFindings: []domain.DocFinding{json.RawMessage(`{"MedicalReportName":"scan-1"}`)},
		textFindings: []domain.DocFinding{json.RawMessage(`{"MedicalReportName":"text-1"}`)},
	}
	uc, _, reports, _, _ := newGenerateFixture(mixedDocs(), conv)
	reports.bundle = &domain.ReportBundle{Report: domain.Report{ID: "r1", ClaimID: "c1", UserID: "u1"}}

	docWise, err := uc.DocWiseOnly(context.Background(), assessorCaller, "r1")
	if err != nil {
		t.Fatalf("DocWiseOnly() error = %v", err)
	}
	var findings []json.RawMessage
	if err := json.Unmarshal([]byte(docWise), &findings); err != nil || len(findings) != 2 {
		t.Fatalf("expected 2-element array, got %s", docWise)
	}
	if !strings.Contains(string(findings[0]), "scan-1") {
		t.Fatalf("SCAN finding must come first: %s", docWise)
	}
}

func TestVariantsRequireExistingReport(t *testing.T) {
	uc, _, _, _, _ := newGenerateFixture(mixedDocs(), &conversationFake{})

	_, err := uc.TreatmentsOnly(context.Background(), assessorCaller, "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
