package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/medassure/claims-backoffice/internal/core/domain"
	"github.com/medassure/claims-backoffice/internal/core/ports"
)

// RemoveDocumentsUseCase deletes document metadata together with the
// referenced blobs. The relational row and the blob must both go; a blob
// left behind after the row is gone is a consistency defect and is
// surfaced, never swallowed.
type RemoveDocumentsUseCase struct {
	claims ports.ClaimRepository
	docs   ports.DocumentRepository
	store  ports.ObjectStore
}

func NewRemoveDocumentsUseCase(
	claims ports.ClaimRepository,
	docs ports.DocumentRepository,
	store ports.ObjectStore,
) *RemoveDocumentsUseCase {
	return &RemoveDocumentsUseCase{
		claims: claims,
		docs:   docs,
		store:  store,
	}
}

// Delete removes one document. Owner-only.
func (uc *RemoveDocumentsUseCase) Delete(ctx context.Context, caller domain.Caller, documentID string) error {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if !domain.IsOwner(doc.UserID, caller.UserID) {
		return domain.WrapError(domain.ErrForbidden, "delete document", errors.New("caller does not own document"))
	}

	if err := uc.docs.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document row: %w", err)
	}
	if err := uc.store.DeleteObject(ctx, domain.ObjectKey(doc.Name)); err != nil {
		// The row is already gone; this cannot be undone transactionally.
		return domain.WrapError(domain.ErrConsistencyDefect, "delete document blob", err)
	}
	return nil
}

// DeleteByClaim removes every document of a claim: the rows in one
// database operation, then each blob. The returned count is of rows
// removed; callers must not assume the blob deletions succeeded and get
// the keys of any blobs left behind.
func (uc *RemoveDocumentsUseCase) DeleteByClaim(ctx context.Context, caller domain.Caller, claimID string) (*domain.PurgeResult, error) {
	claim, err := uc.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}
	if !domain.IsOwner(claim.UserID, caller.UserID) {
		return nil, domain.WrapError(domain.ErrForbidden, "delete claim documents", errors.New("caller does not own claim"))
	}

	docs, err := uc.docs.ListByClaim(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("list claim documents: %w", err)
	}

	deleted, err := uc.docs.DeleteByClaim(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("delete document rows: %w", err)
	}

	defects := make([]string, 0)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, doc := range docs {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := uc.store.DeleteObject(ctx, key); err != nil {
				mu.Lock()
				defects = append(defects, key)
				mu.Unlock()
			}
		}(domain.ObjectKey(doc.Name))
	}
	wg.Wait()

	return &domain.PurgeResult{DeletedRows: deleted, DefectKeys: defects}, nil
}
