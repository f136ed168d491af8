package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/medassure/claims-backoffice/internal/config"
	"github.com/medassure/claims-backoffice/internal/core/ports"
	"github.com/medassure/claims-backoffice/internal/core/usecase"
	"github.com/medassure/claims-backoffice/internal/infrastructure/llm/gemini"
	"github.com/medassure/claims-backoffice/internal/infrastructure/objectstore/s3"
	"github.com/medassure/claims-backoffice/internal/infrastructure/queue/nats"
	"github.com/medassure/claims-backoffice/internal/infrastructure/repository/postgres"
	"github.com/medassure/claims-backoffice/internal/infrastructure/resilience"
	"github.com/medassure/claims-backoffice/internal/infrastructure/staging"
	"github.com/medassure/claims-backoffice/internal/infrastructure/transfer/httpxfer"
)

// App wires the infrastructure behind the inbound ports. Both binaries
// build the same graph; the api serves it over HTTP and the worker
// drains the regeneration queue.
type App struct {
	Config config.Config

	Queue   ports.JobQueue
	Staging ports.Staging

	Uploader  ports.DocumentUploader
	Remover   ports.DocumentRemover
	Reader    ports.DocumentReader
	Generator ports.ReportGenerator
	Editor    ports.ReportEditor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	claims := postgres.NewClaimRepository(db)
	docs := postgres.NewDocumentRepository(db)
	reports := postgres.NewReportRepository(db)

	store, err := s3.New(ctx, cfg.S3Bucket, cfg.AWSRegion)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object store: %w", err)
	}

	workspace, err := staging.NewWorkspace(cfg.StagingPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init staging workspace: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init job queue: %w", err)
	}

	xfer := httpxfer.New(time.Duration(cfg.TransferTimeoutSeconds) * time.Second)
	analyst := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, executor)

	uploadUC := usecase.NewUploadDocumentsUseCase(claims, docs, store, xfer)
	removeUC := usecase.NewRemoveDocumentsUseCase(claims, docs, store)
	browseUC := usecase.NewBrowseDocumentsUseCase(claims, docs, store)
	generateUC := usecase.NewGenerateReportUseCase(claims, docs, reports, store, xfer, workspace, analyst)
	reportUC := usecase.NewManageReportsUseCase(reports)

	return &App{
		Config: cfg,

		Queue:   queue,
		Staging: workspace,

		Uploader:  uploadUC,
		Remover:   removeUC,
		Reader:    browseUC,
		Generator: generateUC,
		Editor:    reportUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
