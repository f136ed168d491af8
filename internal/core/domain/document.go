package domain

import "time"

// DocumentType is the caller-declared classification of an uploaded file.
// It routes the file to the matching analysis instruction during report
// generation; other values are excluded from doc-wise analysis.
type DocumentType string

const (
	DocTypeScan DocumentType = "SCAN"
	DocTypeText DocumentType = "TEXT"
)

// Document is the metadata row for one binary medical file. The binary
// itself lives in object storage under the storage name; only the
// reference is persisted here.
type Document struct {
	ID           string       `json:"id"`
	ClaimID      string       `json:"claim_id"`
	UserID       string       `json:"user_id"`
	Name         string       `json:"name"`
	OriginalName string       `json:"original_name"`
	DocType      DocumentType `json:"doc_type"`
	CreatedAt    time.Time    `json:"created_at"`
}

// IncomingFile describes one staged binary awaiting ingestion.
type IncomingFile struct {
	StagedPath   string
	OriginalName string
	DocType      DocumentType
	MimeType     string
	Size         int64
}

// FileResult reports the per-file outcome of a batch upload. Failures
// are isolated per file; a failed sibling never rolls back a succeeded
// one.
type FileResult struct {
	DocumentID   string `json:"document_id,omitempty"`
	OriginalName string `json:"original_name"`
	Err          error  `json:"-"`
}

// UploadReceipt is the joined outcome of one upload request.
type UploadReceipt struct {
	Results []FileResult
}

// DocumentIDs returns the ids of the documents that made it to durable
// storage.
func (r *UploadReceipt) DocumentIDs() []string {
	ids := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Err == nil && res.DocumentID != "" {
			ids = append(ids, res.DocumentID)
		}
	}
	return ids
}

// Failed returns the results whose file did not reach durable storage.
func (r *UploadReceipt) Failed() []FileResult {
	var failed []FileResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// PurgeResult is the outcome of a bulk delete-by-claim. DeletedRows is
// the count of removed metadata rows; DefectKeys lists object keys whose
// blob deletion failed after the rows were already gone.
type PurgeResult struct {
	DeletedRows int      `json:"deleted_rows"`
	DefectKeys  []string `json:"defect_keys,omitempty"`
}

// DocumentView pairs a document with a presigned download URL.
type DocumentView struct {
	Document
	URL string `json:"url"`
}
