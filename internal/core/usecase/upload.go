package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medassure/claims-backoffice/internal/core/domain"
	"github.com/medassure/claims-backoffice/internal/core/ports"
)

// UploadDocumentsUseCase is the upload ingest pipeline: it validates
// ownership and capacity, persists document metadata, pushes each staged
// binary to object storage through a presigned URL and reconciles
// failures per file.
type UploadDocumentsUseCase struct {
	claims ports.ClaimRepository
	docs   ports.DocumentRepository
	store  ports.ObjectStore
	xfer   ports.FileTransfer
}

func NewUploadDocumentsUseCase(
	claims ports.ClaimRepository,
	docs ports.DocumentRepository,
	store ports.ObjectStore,
	xfer ports.FileTransfer,
) *UploadDocumentsUseCase {
	return &UploadDocumentsUseCase{
		claims: claims,
		docs:   docs,
		store:  store,
		xfer:   xfer,
	}
}

// UploadBatch ingests an ordered list of staged files for one claim.
// Rejections happen before any side effect; after that point failures
// are isolated per file and partial success is permitted.
func (uc *UploadDocumentsUseCase) UploadBatch(
	ctx context.Context,
	caller domain.Caller,
	claimID string,
	area ports.StagingDir,
	files []domain.IncomingFile,
) (*domain.UploadReceipt, error) {
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload batch", errors.New("no files in request"))
	}

	claim, err := uc.claims.GetByID(ctx, claimID)
	if err != nil {
		uc.discardAll(area, files)
		return nil, fmt.Errorf("load claim: %w", err)
	}
	if !domain.IsOwner(claim.UserID, caller.UserID) {
		uc.discardAll(area, files)
		return nil, domain.WrapError(domain.ErrForbidden, "upload batch", errors.New("caller does not own claim"))
	}

	count, err := uc.docs.CountByClaim(ctx, claimID)
	if err != nil {
		uc.discardAll(area, files)
		return nil, fmt.Errorf("count claim documents: %w", err)
	}
	if !domain.WithinCapacity(count, len(files)) {
		uc.discardAll(area, files)
		return nil, domain.WrapError(domain.ErrCapacityExceeded, "upload batch",
			fmt.Errorf("claim holds %d documents, incoming %d, ceiling %d", count, len(files), domain.MaxDocumentsPerClaim))
	}

	results := make([]domain.FileResult, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file domain.IncomingFile) {
			defer wg.Done()
			id, err := uc.ingestOne(ctx, claim, area, file)
			results[i] = domain.FileResult{
				DocumentID:   id,
				OriginalName: file.OriginalName,
				Err:          err,
			}
		}(i, file)
	}
	wg.Wait()

	return &domain.UploadReceipt{Results: results}, nil
}

// UploadOne is the batch pipeline with batch size one; it returns the
// created document id directly.
func (uc *UploadDocumentsUseCase) UploadOne(
	ctx context.Context,
	caller domain.Caller,
	claimID string,
	area ports.StagingDir,
	file domain.IncomingFile,
) (string, error) {
	receipt, err := uc.UploadBatch(ctx, caller, claimID, area, []domain.IncomingFile{file})
	if err != nil {
		return "", err
	}
	res := receipt.Results[0]
	if res.Err != nil {
		return "", res.Err
	}
	return res.DocumentID, nil
}

// ingestOne moves one staged file to durable storage. The staged copy is
// removed on every path; a failed remote upload rolls back the metadata
// row for this file only, and the corrective delete is awaited so its
// outcome folds into the result.
func (uc *UploadDocumentsUseCase) ingestOne(
	ctx context.Context,
	claim *domain.Claim,
	area ports.StagingDir,
	file domain.IncomingFile,
) (string, error) {
	defer func() {
		_ = area.Remove(filepath.Base(file.StagedPath))
	}()

	name := domain.StorageName(claim.ID, file.MimeType)
	doc := &domain.Document{
		ID:           uuid.NewString(),
		ClaimID:      claim.ID,
		UserID:       claim.UserID,
		Name:         name,
		OriginalName: file.OriginalName,
		DocType:      file.DocType,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.docs.Create(ctx, doc); err != nil {
		return "", fmt.Errorf("create document metadata: %w", err)
	}

	url, err := uc.store.PresignUpload(ctx, domain.ObjectKey(name), file.MimeType)
	if err != nil {
		return "", uc.rollback(ctx, doc, domain.WrapError(domain.ErrUpstreamTransfer, "presign upload", err))
	}
	if err := uc.xfer.Upload(ctx, url, file.StagedPath, file.MimeType); err != nil {
		return "", uc.rollback(ctx, doc, domain.WrapError(domain.ErrUpstreamTransfer, "put object", err))
	}
	return doc.ID, nil
}

func (uc *UploadDocumentsUseCase) rollback(ctx context.Context, doc *domain.Document, cause error) error {
	if err := uc.docs.Delete(ctx, doc.ID); err != nil {
		return domain.WrapError(domain.ErrConsistencyDefect, "roll back document row", errors.Join(cause, err))
	}
	return cause
}

func (uc *UploadDocumentsUseCase) discardAll(area ports.StagingDir, files []domain.IncomingFile) {
	for _, file := range files {
		_ = area.Remove(filepath.Base(file.StagedPath))
	}
}
