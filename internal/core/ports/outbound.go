package ports

import (
	"context"

	"github.com/medassure/claims-backoffice/internal/core/domain"
)

// ClaimRepository reads claim state. Claim CRUD itself lives outside the
// pipeline; ownership checks only need the stored row.
type ClaimRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Claim, error)
}

// DocumentRepository persists and reads document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByClaim(ctx context.Context, claimID string) ([]domain.Document, error)
	CountByClaim(ctx context.Context, claimID string) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteByClaim(ctx context.Context, claimID string) (int, error)
}

// ReportRepository persists reports and their owned artifacts.
// CreateBundle and the deletes are transactional: a report never exists
// without its AlternateTreatments and DocWiseReport rows.
type ReportRepository interface {
	GetByID(ctx context.Context, id string) (*domain.ReportBundle, error)
	GetByClaim(ctx context.Context, claimID string) (*domain.ReportBundle, error)
	CreateBundle(ctx context.Context, report *domain.Report, treatments, docWise string) error
	Update(ctx context.Context, id string, update domain.ReportUpdate) error
	UpdateTreatments(ctx context.Context, reportID, text string) error
	UpdateDocWise(ctx context.Context, reportID, text string) error
	Delete(ctx context.Context, id string) error
	DeleteByClaim(ctx context.Context, claimID string) error
}

// ObjectStore issues time-bounded presigned URLs against the blob store
// and deletes objects. It performs no retries; retry policy belongs to
// callers.
type ObjectStore interface {
	PresignDownload(ctx context.Context, key string) (string, error)
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// FileTransfer moves a local file to/from a presigned URL.
type FileTransfer interface {
	Upload(ctx context.Context, url, path, contentType string) error
	Download(ctx context.Context, url, path string) error
}

// StagingDir is one ephemeral local working directory. Release removes
// it with everything inside and must be safe on every exit path.
type StagingDir interface {
	Path() string
	FilePath(name string) string
	Remove(name string) error
	Release() error
}

// Staging allocates uniquely named staging directories.
type Staging interface {
	Acquire() (StagingDir, error)
}

// AnalysisConversation is one stateful multi-turn exchange with the AI
// generation service. Turns execute strictly in order; later turns may
// depend on earlier exchanges.
type AnalysisConversation interface {
	AnalyzeScans(ctx context.Context, files []domain.Attachment) ([]domain.DocFinding, error)
	AnalyzeTexts(ctx context.Context, files []domain.Attachment) ([]domain.DocFinding, error)
	TreatmentOptions(ctx context.Context, files []domain.Attachment) (string, error)
	ClinicalSummary(ctx context.Context, files []domain.Attachment) (string, error)
}

// Analyst opens analysis conversations against the generation service.
type Analyst interface {
	StartConversation() AnalysisConversation
}

// JobQueue carries asynchronous regeneration requests.
type JobQueue interface {
	PublishReportRequested(ctx context.Context, claimID string) error
	SubscribeReportRequested(ctx context.Context, handler func(context.Context, string) error) error
}
