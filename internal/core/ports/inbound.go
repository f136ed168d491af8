package ports

import (
	"context"

	"github.com/medassure/claims-backoffice/internal/core/domain"
)

// DocumentUploader is the inbound contract for the upload ingest
// pipeline. Files arrive already staged inside area; the pipeline owns
// their removal.
type DocumentUploader interface {
	UploadBatch(ctx context.Context, caller domain.Caller, claimID string, area StagingDir, files []domain.IncomingFile) (*domain.UploadReceipt, error)
	UploadOne(ctx context.Context, caller domain.Caller, claimID string, area StagingDir, file domain.IncomingFile) (string, error)
}

// DocumentRemover deletes documents together with their blobs.
type DocumentRemover interface {
	Delete(ctx context.Context, caller domain.Caller, documentID string) error
	DeleteByClaim(ctx context.Context, caller domain.Caller, claimID string) (*domain.PurgeResult, error)
}

// DocumentReader is the inbound read model for document metadata.
type DocumentReader interface {
	Get(ctx context.Context, caller domain.Caller, documentID string) (*domain.DocumentView, error)
	ListByClaim(ctx context.Context, caller domain.Caller, claimID string) ([]domain.DocumentView, error)
	CountByClaim(ctx context.Context, caller domain.Caller, claimID string) (int, error)
}

// ReportGenerator drives AI report generation. Generate is the full
// destructive regenerate; the three narrower variants return text
// without touching the database.
type ReportGenerator interface {
	Generate(ctx context.Context, caller domain.Caller, claimID string) (*domain.Report, error)
	SummaryOnly(ctx context.Context, caller domain.Caller, reportID string) (string, error)
	TreatmentsOnly(ctx context.Context, caller domain.Caller, reportID string) (string, error)
	DocWiseOnly(ctx context.Context, caller domain.Caller, reportID string) (string, error)
}

// ReportEditor reads and maintains persisted reports.
type ReportEditor interface {
	Get(ctx context.Context, caller domain.Caller, reportID string) (*domain.ReportBundle, error)
	GetByClaim(ctx context.Context, caller domain.Caller, claimID string) (*domain.ReportBundle, error)
	Update(ctx context.Context, caller domain.Caller, reportID string, update domain.ReportUpdate) error
	UpdateTreatments(ctx context.Context, caller domain.Caller, reportID, text string) error
	UpdateDocWise(ctx context.Context, caller domain.Caller, reportID, text string) error
	Delete(ctx context.Context, caller domain.Caller, reportID string) error
}
