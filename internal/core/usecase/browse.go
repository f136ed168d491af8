package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/medassure/claims-backoffice/internal/core/domain"
	"github.com/medassure/claims-backoffice/internal/core/ports"
)

// BrowseDocumentsUseCase serves document metadata with presigned
// download URLs. Owners and assessors may read.
type BrowseDocumentsUseCase struct {
	claims ports.ClaimRepository
	docs   ports.DocumentRepository
	store  ports.ObjectStore
}

func NewBrowseDocumentsUseCase(
	claims ports.ClaimRepository,
	docs ports.DocumentRepository,
	store ports.ObjectStore,
) *BrowseDocumentsUseCase {
	return &BrowseDocumentsUseCase{
		claims: claims,
		docs:   docs,
		store:  store,
	}
}

func (uc *BrowseDocumentsUseCase) Get(ctx context.Context, caller domain.Caller, documentID string) (*domain.DocumentView, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if !domain.CanRead(doc.UserID, caller) {
		return nil, domain.WrapError(domain.ErrForbidden, "get document", errors.New("caller may not read document"))
	}

	url, err := uc.store.PresignDownload(ctx, domain.ObjectKey(doc.Name))
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamTransfer, "presign download", err)
	}
	return &domain.DocumentView{Document: *doc, URL: url}, nil
}

func (uc *BrowseDocumentsUseCase) ListByClaim(ctx context.Context, caller domain.Caller, claimID string) ([]domain.DocumentView, error) {
	claim, err := uc.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}
	if !domain.CanRead(claim.UserID, caller) {
		return nil, domain.WrapError(domain.ErrForbidden, "list documents", errors.New("caller may not read claim documents"))
	}

	docs, err := uc.docs.ListByClaim(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("list claim documents: %w", err)
	}

	views := make([]domain.DocumentView, 0, len(docs))
	for _, doc := range docs {
		url, err := uc.store.PresignDownload(ctx, domain.ObjectKey(doc.Name))
		if err != nil {
			return nil, domain.WrapError(domain.ErrUpstreamTransfer, "presign download", err)
		}
		views = append(views, domain.DocumentView{Document: doc, URL: url})
	}
	return views, nil
}

func (uc *BrowseDocumentsUseCase) CountByClaim(ctx context.Context, caller domain.Caller, claimID string) (int, error) {
	claim, err := uc.claims.GetByID(ctx, claimID)
	if err != nil {
		return 0, fmt.Errorf("load claim: %w", err)
	}
	if !domain.CanRead(claim.UserID, caller) {
		return 0, domain.WrapError(domain.ErrForbidden, "count documents", errors.New("caller may not read claim documents"))
	}
	count, err := uc.docs.CountByClaim(ctx, claimID)
	if err != nil {
		return 0, fmt.Errorf("count claim documents: %w", err)
	}
	return count, nil
}
