package httpadapter

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/medassure/claims-backoffice/internal/core/domain"
	"github.com/medassure/claims-backoffice/internal/core/ports"
)

const (
	batchFilesField = "files"
	singleFileField = "file"
	fileTypesField  = "fileTypes"
)

// fileResultView is the wire shape of one per-file batch outcome.
type fileResultView struct {
	DocumentID   string `json:"document_id,omitempty"`
	OriginalName string `json:"original_name"`
	Error        string `json:"error,omitempty"`
}

type uploadResponse struct {
	Results []fileResultView `json:"results"`
}

func (rt *Router) uploadBatch(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	claimID := r.PathValue("claimID")

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	if err := r.ParseMultipartForm(rt.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed multipart body"})
		return
	}
	parts := r.MultipartForm.File[batchFilesField]
	if len(parts) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("multipart field %q is required", batchFilesField)})
		return
	}
	if len(parts) > domain.MaxDocumentsPerClaim {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("at most %d files per request", domain.MaxDocumentsPerClaim)})
		return
	}

	docTypes, err := parseFileTypes(r.FormValue(fileTypesField), len(parts))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	area, err := rt.staging.Acquire()
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() { _ = area.Release() }()

	files, err := stageParts(area, parts, docTypes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	receipt, err := rt.uploader.UploadBatch(r.Context(), caller, claimID, area, files)
	rt.metrics.RecordUploadBatch("api", len(files), countSucceeded(receipt), countFailed(receipt), err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, batchStatus(receipt), toUploadResponse(receipt))
}

func (rt *Router) uploadOne(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	claimID := r.PathValue("claimID")

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	if err := r.ParseMultipartForm(rt.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed multipart body"})
		return
	}
	parts := r.MultipartForm.File[singleFileField]
	if len(parts) != 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("exactly one %q part is required", singleFileField)})
		return
	}

	area, err := rt.staging.Acquire()
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() { _ = area.Release() }()

	files, err := stageParts(area, parts, []domain.DocumentType{docTypeForMime(partMimeType(parts[0]))})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	id, err := rt.uploader.UploadOne(r.Context(), caller, claimID, area, files[0])
	rt.metrics.RecordUploadBatch("api", 1, boolToInt(err == nil), boolToInt(err != nil), err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"document_id": id})
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	view, err := rt.reader.Get(r.Context(), caller, r.PathValue("documentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	rt.metrics.RecordPresign("api", "download")
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	views, err := rt.reader.ListByClaim(r.Context(), caller, r.PathValue("claimID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": views})
}

func (rt *Router) countDocuments(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	count, err := rt.reader.CountByClaim(r.Context(), caller, r.PathValue("claimID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	if err := rt.remover.Delete(r.Context(), caller, r.PathValue("documentID")); err != nil {
		if domain.IsKind(err, domain.ErrConsistencyDefect) {
			rt.metrics.RecordConsistencyDefect("api", "delete_document")
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (rt *Router) purgeDocuments(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	result, err := rt.remover.DeleteByClaim(r.Context(), caller, r.PathValue("claimID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if len(result.DefectKeys) > 0 {
		rt.metrics.RecordConsistencyDefect("api", "purge_documents")
	}
	writeJSON(w, http.StatusOK, result)
}

// parseFileTypes splits the comma-separated declared types and checks
// they line up one to one with the uploaded parts.
func parseFileTypes(raw string, want int) ([]domain.DocumentType, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("form field %q is required", fileTypesField)
	}
	tokens := strings.Split(raw, ",")
	if len(tokens) != want {
		return nil, fmt.Errorf("%d file types declared for %d files", len(tokens), want)
	}
	types := make([]domain.DocumentType, len(tokens))
	for i, token := range tokens {
		switch t := domain.DocumentType(strings.TrimSpace(token)); t {
		case domain.DocTypeScan, domain.DocTypeText:
			types[i] = t
		default:
			return nil, fmt.Errorf("unknown file type %q", strings.TrimSpace(token))
		}
	}
	return types, nil
}

// stageParts copies every multipart part into the staging area under a
// collision-free name and describes it for the ingest pipeline.
func stageParts(area ports.StagingDir, parts []*multipart.FileHeader, docTypes []domain.DocumentType) ([]domain.IncomingFile, error) {
	files := make([]domain.IncomingFile, 0, len(parts))
	for i, part := range parts {
		staged := area.FilePath(fmt.Sprintf("%d_%s", i, filepath.Base(part.Filename)))
		size, err := stageOnePart(part, staged)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", part.Filename, err)
		}
		files = append(files, domain.IncomingFile{
			StagedPath:   staged,
			OriginalName: part.Filename,
			DocType:      docTypes[i],
			MimeType:     partMimeType(part),
			Size:         size,
		})
	}
	return files, nil
}

func stageOnePart(part *multipart.FileHeader, dest string) (int64, error) {
	src, err := part.Open()
	if err != nil {
		return 0, err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	size, err := io.Copy(out, src)
	if err != nil {
		return 0, err
	}
	return size, out.Close()
}

func partMimeType(part *multipart.FileHeader) string {
	if ct := part.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// docTypeForMime classifies a single upload the way callers declare
// batches: PDFs carry text, everything else is treated as a scan.
func docTypeForMime(mimeType string) domain.DocumentType {
	if mimeType == "application/pdf" {
		return domain.DocTypeText
	}
	return domain.DocTypeScan
}

func batchStatus(receipt *domain.UploadReceipt) int {
	failed := countFailed(receipt)
	switch {
	case failed == 0:
		return http.StatusCreated
	case failed == len(receipt.Results):
		return http.StatusBadGateway
	default:
		return http.StatusMultiStatus
	}
}

func toUploadResponse(receipt *domain.UploadReceipt) uploadResponse {
	out := uploadResponse{Results: make([]fileResultView, len(receipt.Results))}
	for i, res := range receipt.Results {
		view := fileResultView{
			DocumentID:   res.DocumentID,
			OriginalName: res.OriginalName,
		}
		if res.Err != nil {
			view.Error = res.Err.Error()
		}
		out.Results[i] = view
	}
	return out
}

func countSucceeded(receipt *domain.UploadReceipt) int {
	if receipt == nil {
		return 0
	}
	return len(receipt.DocumentIDs())
}

func countFailed(receipt *domain.UploadReceipt) int {
	if receipt == nil {
		return 0
	}
	return len(receipt.Failed())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
