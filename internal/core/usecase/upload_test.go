package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/medassure/claims-backoffice/internal/core/domain"
)

type claimRepoFake struct {
	claim *domain.Claim
	err   error
}

func (f *claimRepoFake) GetByID(context.Context, string) (*domain.Claim, error) {
	if f.err != nil {
		return nil, f.err
	}
	copyClaim := *f.claim
	return &copyClaim, nil
}

type docRepoFake struct {
	mu      sync.Mutex
	count   int
	docs    []domain.Document
	created []domain.Document
	deleted []string

	createErr error
	deleteErr error
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *doc)
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	for i := range f.docs {
		if f.docs[i].ID == id {
			copyDoc := f.docs[i]
			return &copyDoc, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get document", errors.New(id))
}

func (f *docRepoFake) ListByClaim(context.Context, string) ([]domain.Document, error) {
	return f.docs, nil
}

func (f *docRepoFake) CountByClaim(context.Context, string) (int, error) {
	return f.count, nil
}

func (f *docRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *docRepoFake) DeleteByClaim(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.docs)
	f.deleted = make([]string, 0, n)
	for _, doc := range f.docs {
		f.deleted = append(f.deleted, doc.ID)
	}
	return n, nil
}

type objectStoreFake struct {
	mu         sync.Mutex
	presignErr error
	deleteErr  map[string]error

	presignedGets []string
	presignedPuts []string
	deletedKeys   []string
}

func (f *objectStoreFake) PresignDownload(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.presignedGets = append(f.presignedGets, key)
	return "https://store.test/get/" + key, nil
}

func (f *objectStoreFake) PresignUpload(_ context.Context, key, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.presignedPuts = append(f.presignedPuts, key)
	return "https://store.test/put/" + key, nil
}

func (f *objectStoreFake) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.deleteErr[key]; ok {
		return err
	}
	f.deletedKeys = append(f.deletedKeys, key)
	return nil
}

type transferFake struct {
	mu        sync.Mutex
	failPaths map[string]error

	uploaded   []string
	downloaded []string
}

func (f *transferFake) Upload(_ context.Context, _, path, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failPaths[path]; ok {
		return err
	}
	f.uploaded = append(f.uploaded, path)
	return nil
}

func (f *transferFake) Download(_ context.Context, _, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failPaths[path]; ok {
		return err
	}
	f.downloaded = append(f.downloaded, path)
	return nil
}

type stagingDirFake struct {
	mu       sync.Mutex
	root     string
	removed  []string
	released bool
}

func (f *stagingDirFake) Path() string { return f.root }

func (f *stagingDirFake) FilePath(name string) string { return f.root + "/" + name }

func (f *stagingDirFake) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, name)
	return nil
}

func (f *stagingDirFake) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
	return nil
}

var (
	ownerCaller    = domain.Caller{UserID: "u1", Role: domain.RolePolicyHolder}
	strangerCaller = domain.Caller{UserID: "u2", Role: domain.RolePolicyHolder}
	assessorCaller = domain.Caller{UserID: "u9", Role: domain.RoleClaimAssessor}
)

func testClaim() *domain.Claim {
	return &domain.Claim{ID: "c1", UserID: "u1"}
}

func incoming(area *stagingDirFake, name string, docType domain.DocumentType, mime string) domain.IncomingFile {
	return domain.IncomingFile{
		StagedPath:   area.FilePath(name),
		OriginalName: name,
		DocType:      docType,
		MimeType:     mime,
		Size:         64,
	}
}

func TestUploadBatchSuccess(t *testing.T) {
	claims := &claimRepoFake{claim: testClaim()}
	docs := &docRepoFake{}
	store := &objectStoreFake{}
	xfer := &transferFake{}
	area := &stagingDirFake{root: "/tmp/stage"}
	uc := NewUploadDocumentsUseCase(claims, docs, store, xfer)

	files := []domain.IncomingFile{
		incoming(area, "scan.png", domain.DocTypeScan, "image/png"),
		incoming(area, "discharge.pdf", domain.DocTypeText, "application/pdf"),
	}

	receipt, err := uc.UploadBatch(context.Background(), ownerCaller, "c1", area, files)
	if err != nil {
		t.Fatalf("UploadBatch() error = %v", err)
	}
	if got := len(receipt.DocumentIDs()); got != 2 {
		t.Fatalf("expected 2 document ids, got %d", got)
	}
	if len(docs.created) != 2 {
		t.Fatalf("expected 2 metadata rows, got %d", len(docs.created))
	}
	for _, doc := range docs.created {
		if doc.UserID != "u1" || doc.ClaimID != "c1" {
			t.Fatalf("unexpected ownership on row: %+v", doc)
		}
	}
	for _, key := range store.presignedPuts {
		if !strings.HasPrefix(key, "medical_reports/c1_") {
			t.Fatalf("unexpected object key %s", key)
		}
	}
	if len(xfer.uploaded) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(xfer.uploaded))
	}
	if len(area.removed) != 2 {
		t.Fatalf("expected both staged copies removed, got %v", area.removed)
	}
}

func TestUploadBatchForbiddenForNonOwner(t *testing.T) {
	claims := &claimRepoFake{claim: testClaim()}
	docs := &docRepoFake{}
	area := &stagingDirFake{root: "/tmp/stage"}
	uc := NewUploadDocumentsUseCase(claims, docs, &objectStoreFake{}, &transferFake{})

	_, err := uc.UploadBatch(context.Background(), strangerCaller, "c1", area,
		[]domain.IncomingFile{incoming(area, "scan.png", domain.DocTypeScan, "image/png")})
	if !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(docs.created) != 0 {
		t.Fatalf("expected no rows, got %d", len(docs.created))
	}
	if len(area.removed) != 1 {
		t.Fatalf("expected staged file removed on rejection, got %v", area.removed)
	}
}

func TestUploadBatchRejectsOverCapacity(t *testing.T) {
	claims := &claimRepoFake{claim: testClaim()}
	docs := &docRepoFake{count: 14}
	area := &stagingDirFake{root: "/tmp/stage"}
	uc := NewUploadDocumentsUseCase(claims, docs, &objectStoreFake{}, &transferFake{})

	files := []domain.IncomingFile{
		incoming(area, "scan.png", domain.DocTypeScan, "image/png"),
		incoming(area, "discharge.pdf", domain.DocTypeText, "application/pdf"),
	}
	_, err := uc.UploadBatch(context.Background(), ownerCaller, "c1", area, files)
	if !domain.IsKind(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if len(docs.created) != 0 {
		t.Fatalf("expected zero new rows, got %d", len(docs.created))
	}
	if len(area.removed) != 2 {
		t.Fatalf("expected all staged files removed, got %v", area.removed)
	}
}

func TestUploadBatchIsolatesPerFileFailure(t *testing.T) {
	claims := &claimRepoFake{claim: testClaim()}
	docs := &docRepoFake{}
	store := &objectStoreFake{}
	area := &stagingDirFake{root: "/tmp/stage"}
	xfer := &transferFake{failPaths: map[string]error{
		area.FilePath("bad.pdf"): errors.New("put status 500"),
	}}
	uc := NewUploadDocumentsUseCase(claims, docs, store, xfer)

	files := []domain.IncomingFile{
		incoming(area, "good.png", domain.DocTypeScan, "image/png"),
		incoming(area, "bad.pdf", domain.DocTypeText, "application/pdf"),
	}
	receipt, err := uc.UploadBatch(context.Background(), ownerCaller, "c1", area, files)
	if err != nil {
		t.Fatalf("UploadBatch() error = %v", err)
	}
	if got := len(receipt.DocumentIDs()); got != 1 {
		t.Fatalf("expected 1 surviving document, got %d", got)
	}
	failed := receipt.Failed()
	if len(failed) != 1 || failed[0].OriginalName != "bad.pdf" {
		t.Fatalf("expected bad.pdf failure, got %+v", failed)
	}
	if !domain.IsKind(failed[0].Err, domain.ErrUpstreamTransfer) {
		t.Fatalf("expected ErrUpstreamTransfer, got %v", failed[0].Err)
	}
	if len(docs.deleted) != 1 {
		t.Fatalf("expected exactly one rollback delete, got %v", docs.deleted)
	}
	if len(area.removed) != 2 {
		t.Fatalf("expected all staged copies removed, got %v", area.removed)
	}
}

func TestUploadBatchRollbackFailureIsConsistencyDefect(t *testing.T) {
	claims := &claimRepoFake{claim: testClaim()}
	docs := &docRepoFake{deleteErr: errors.New("db down")}
	area := &stagingDirFake{root: "/tmp/stage"}
	xfer := &transferFake{failPaths: map[string]error{
		area.FilePath("bad.pdf"): errors.New("put status 500"),
	}}
	uc := NewUploadDocumentsUseCase(claims, docs, &objectStoreFake{}, xfer)

	receipt, err := uc.UploadBatch(context.Background(), ownerCaller, "c1", area,
		[]domain.IncomingFile{incoming(area, "bad.pdf", domain.DocTypeText, "application/pdf")})
	if err != nil {
		t.Fatalf("UploadBatch() error = %v", err)
	}
	failed := receipt.Failed()
	if len(failed) != 1 {
		t.Fatalf("expected one failed file, got %+v", receipt.Results)
	}
	if !domain.IsKind(failed[0].Err, domain.ErrConsistencyDefect) {
		t.Fatalf("expected ErrConsistencyDefect, got %v", failed[0].Err)
	}
}

func TestUploadOneAtCeiling(t *testing.T) {
	claims := &claimRepoFake{claim: testClaim()}
	docs := &docRepoFake{count: 15}
	area := &stagingDirFake{root: "/tmp/stage"}
	uc := NewUploadDocumentsUseCase(claims, docs, &objectStoreFake{}, &transferFake{})

	_, err := uc.UploadOne(context.Background(), ownerCaller, "c1", area,
		incoming(area, "scan.png", domain.DocTypeScan, "image/png"))
	if !domain.IsKind(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestUploadOneSuccess(t *testing.T) {
	claims := &claimRepoFake{claim: testClaim()}
	docs := &docRepoFake{count: 14}
	area := &stagingDirFake{root: "/tmp/stage"}
	uc := NewUploadDocumentsUseCase(claims, docs, &objectStoreFake{}, &transferFake{})

	id, err := uc.UploadOne(context.Background(), ownerCaller, "c1", area,
		incoming(area, "scan.png", domain.DocTypeScan, "image/png"))
	if err != nil {
		t.Fatalf("UploadOne() error = %v", err)
	}
	if id == "" {
		t.Fatalf("expected document id")
	}
}
