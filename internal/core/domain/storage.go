package domain

import (
	"strings"

	"github.com/google/uuid"
)

// objectKeyPrefix namespaces every document blob in the shared bucket.
const objectKeyPrefix = "medical_reports/"

// StorageName allocates the server-generated object name for an uploaded
// binary: <claimID>_<uuid><ext>. The extension follows the declared mime
// type; anything image-derived is normalized to .jpg.
func StorageName(claimID, mimeType string) string {
	return claimID + "_" + uuid.NewString() + FileExt(mimeType)
}

// FileExt maps a declared mime type to the stored file extension.
func FileExt(mimeType string) string {
	switch {
	case mimeType == "application/pdf":
		return ".pdf"
	case strings.HasPrefix(mimeType, "image/"):
		return ".jpg"
	default:
		return ".bin"
	}
}

// ObjectKey resolves a document's storage name to its object-storage key.
func ObjectKey(name string) string {
	return objectKeyPrefix + name
}

// MimeForName reverses FileExt for a stored file name.
func MimeForName(name string) string {
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(name, ".jpg"):
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
