package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medassure/claims-backoffice/internal/core/domain"
	"github.com/medassure/claims-backoffice/internal/core/ports"
)

// GenerateReportUseCase orchestrates AI report generation: it stages a
// claim's blobs locally, drives the multi-turn analysis conversation and
// persists the three artifacts as one atomic unit. Assessor-only.
type GenerateReportUseCase struct {
	claims  ports.ClaimRepository
	docs    ports.DocumentRepository
	reports ports.ReportRepository
	store   ports.ObjectStore
	xfer    ports.FileTransfer
	staging ports.Staging
	analyst ports.Analyst
}

func NewGenerateReportUseCase(
	claims ports.ClaimRepository,
	docs ports.DocumentRepository,
	reports ports.ReportRepository,
	store ports.ObjectStore,
	xfer ports.FileTransfer,
	staging ports.Staging,
	analyst ports.Analyst,
) *GenerateReportUseCase {
	return &GenerateReportUseCase{
		claims:  claims,
		docs:    docs,
		reports: reports,
		store:   store,
		xfer:    xfer,
		staging: staging,
		analyst: analyst,
	}
}

// Generate runs the full pipeline for a claim. It is a destructive
// regenerate: an existing report and its owned artifacts are deleted
// first. Exactly one report exists afterwards, or none on failure.
func (uc *GenerateReportUseCase) Generate(ctx context.Context, caller domain.Caller, claimID string) (*domain.Report, error) {
	if !domain.IsAssessor(caller.Role) {
		return nil, domain.WrapError(domain.ErrForbidden, "generate report", errors.New("caller is not a claim assessor"))
	}

	claim, err := uc.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}

	if err := uc.reports.DeleteByClaim(ctx, claimID); err != nil && !domain.IsKind(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("delete previous report: %w", err)
	}

	docs, err := uc.docs.ListByClaim(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("list claim documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrNoDocuments, "generate report", errors.New("claim has no documents"))
	}

	area, err := uc.staging.Acquire()
	if err != nil {
		return nil, fmt.Errorf("acquire staging dir: %w", err)
	}
	defer func() {
		_ = area.Release()
	}()

	if err := uc.fetchAll(ctx, area, docs); err != nil {
		return nil, err
	}

	draft, err := uc.converse(ctx, area, docs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	report := &domain.Report{
		ID:              uuid.NewString(),
		ClaimID:         claimID,
		UserID:          claim.UserID,
		CombinedSummary: draft.CombinedSummary,
		Approved:        domain.ApprovalStall,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.reports.CreateBundle(ctx, report, draft.Treatments, draft.DocWise); err != nil {
		return nil, fmt.Errorf("persist report bundle: %w", err)
	}
	return report, nil
}

// SummaryOnly regenerates just the clinical summary text for the claim
// behind an existing report. Nothing is persisted.
func (uc *GenerateReportUseCase) SummaryOnly(ctx context.Context, caller domain.Caller, reportID string) (string, error) {
	docs, area, err := uc.stageForVariant(ctx, caller, reportID)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = area.Release()
	}()

	conv := uc.analyst.StartConversation()
	summary, err := conv.ClinicalSummary(ctx, attachments(area, docs))
	if err != nil {
		return "", fmt.Errorf("clinical summary turn: %w", err)
	}
	return summary, nil
}

// TreatmentsOnly regenerates just the treatment options text. Nothing is
// persisted.
func (uc *GenerateReportUseCase) TreatmentsOnly(ctx context.Context, caller domain.Caller, reportID string) (string, error) {
	docs, area, err := uc.stageForVariant(ctx, caller, reportID)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = area.Release()
	}()

	conv := uc.analyst.StartConversation()
	treatments, err := conv.TreatmentOptions(ctx, attachments(area, docs))
	if err != nil {
		return "", fmt.Errorf("treatment options turn: %w", err)
	}
	return treatments, nil
}

// DocWiseOnly regenerates just the per-document findings. Nothing is
// persisted.
func (uc *GenerateReportUseCase) DocWiseOnly(ctx context.Context, caller domain.Caller, reportID string) (string, error) {
	docs, area, err := uc.stageForVariant(ctx, caller, reportID)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = area.Release()
	}()

	conv := uc.analyst.StartConversation()
	docWise, err := uc.docWiseTurns(ctx, conv, area, docs)
	if err != nil {
		return "", err
	}
	return docWise, nil
}

// stageForVariant resolves the claim behind an existing report, checks
// the assessor role, and downloads the claim's blobs into a fresh
// staging dir. The caller owns releasing the returned dir.
func (uc *GenerateReportUseCase) stageForVariant(ctx context.Context, caller domain.Caller, reportID string) ([]domain.Document, ports.StagingDir, error) {
	if !domain.IsAssessor(caller.Role) {
		return nil, nil, domain.WrapError(domain.ErrForbidden, "generate report variant", errors.New("caller is not a claim assessor"))
	}

	bundle, err := uc.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, nil, fmt.Errorf("load report: %w", err)
	}

	docs, err := uc.docs.ListByClaim(ctx, bundle.Report.ClaimID)
	if err != nil {
		return nil, nil, fmt.Errorf("list claim documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil, domain.WrapError(domain.ErrNoDocuments, "generate report variant", errors.New("claim has no documents"))
	}

	area, err := uc.staging.Acquire()
	if err != nil {
		return nil, nil, fmt.Errorf("acquire staging dir: %w", err)
	}
	if err := uc.fetchAll(ctx, area, docs); err != nil {
		_ = area.Release()
		return nil, nil, err
	}
	return docs, area, nil
}

// fetchAll downloads every document blob into the staging dir
// concurrently. In-flight siblings are awaited even when one download
// fails; any failure aborts the whole generation.
func (uc *GenerateReportUseCase) fetchAll(ctx context.Context, area ports.StagingDir, docs []domain.Document) error {
	errs := make([]error, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc domain.Document) {
			defer wg.Done()
			url, err := uc.store.PresignDownload(ctx, domain.ObjectKey(doc.Name))
			if err != nil {
				errs[i] = fmt.Errorf("presign download %s: %w", doc.Name, err)
				return
			}
			if err := uc.xfer.Download(ctx, url, area.FilePath(doc.Name)); err != nil {
				errs[i] = fmt.Errorf("download %s: %w", doc.Name, err)
			}
		}(i, doc)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return domain.WrapError(domain.ErrUpstreamTransfer, "fetch claim documents", err)
	}
	return nil
}

// converse drives the four analysis turns in strict order against one
// conversation.
func (uc *GenerateReportUseCase) converse(ctx context.Context, area ports.StagingDir, docs []domain.Document) (*domain.ReportDraft, error) {
	conv := uc.analyst.StartConversation()

	docWise, err := uc.docWiseTurns(ctx, conv, area, docs)
	if err != nil {
		return nil, err
	}

	all := attachments(area, docs)
	treatments, err := conv.TreatmentOptions(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("treatment options turn: %w", err)
	}
	summary, err := conv.ClinicalSummary(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("clinical summary turn: %w", err)
	}

	return &domain.ReportDraft{
		CombinedSummary: summary,
		Treatments:      treatments,
		DocWise:         docWise,
	}, nil
}

// docWiseTurns runs the two classification turns and concatenates their
// findings in SCAN-then-TEXT order. Documents with an unrecognized
// declared type are excluded.
func (uc *GenerateReportUseCase) docWiseTurns(ctx context.Context, conv ports.AnalysisConversation, area ports.StagingDir, docs []domain.Document) (string, error) {
	var scans, texts []domain.Attachment
	for _, doc := range docs {
		att := domain.Attachment{Path: area.FilePath(doc.Name), MimeType: domain.MimeForName(doc.Name)}
		switch doc.DocType {
		case domain.DocTypeScan:
			scans = append(scans, att)
		case domain.DocTypeText:
			texts = append(texts, att)
		}
	}

	findings := make([]domain.DocFinding, 0, len(scans)+len(texts))
	if len(scans) > 0 {
		scanFindings, err := conv.AnalyzeScans(ctx, scans)
		if err != nil {
			return "", fmt.Errorf("image analysis turn: %w", err)
		}
		findings = append(findings, scanFindings...)
	}
	if len(texts) > 0 {
		textFindings, err := conv.AnalyzeTexts(ctx, texts)
		if err != nil {
			return "", fmt.Errorf("document analysis turn: %w", err)
		}
		findings = append(findings, textFindings...)
	}

	docWise, err := json.Marshal(findings)
	if err != nil {
		return "", domain.WrapError(domain.ErrUpstreamGeneration, "serialize findings", err)
	}
	return string(docWise), nil
}

func attachments(area ports.StagingDir, docs []domain.Document) []domain.Attachment {
	atts := make([]domain.Attachment, 0, len(docs))
	for _, doc := range docs {
		atts = append(atts, domain.Attachment{
			Path:     area.FilePath(doc.Name),
			MimeType: domain.MimeForName(doc.Name),
		})
	}
	return atts
}
