package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden marks an ownership or role violation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a referenced claim, document or report that does
	// not exist.
	ErrNotFound = errors.New("not found")
	// ErrCapacityExceeded marks an upload that would push a claim past
	// the per-claim document ceiling.
	ErrCapacityExceeded = errors.New("document capacity exceeded")
	// ErrNoDocuments marks a generation request for a claim with zero
	// eligible documents.
	ErrNoDocuments = errors.New("no documents uploaded for claim")
	// ErrUpstreamTransfer marks a failed object-storage put or get.
	ErrUpstreamTransfer = errors.New("object transfer failed")
	// ErrUpstreamGeneration marks a failed or unparseable AI service
	// reply.
	ErrUpstreamGeneration = errors.New("report generation failed")
	// ErrPersistence marks a failed database write or transaction.
	ErrPersistence = errors.New("persistence failure")
	// ErrConsistencyDefect marks an already-applied side effect that
	// left the relational index and object storage disagreeing. It must
	// be surfaced, never absorbed.
	ErrConsistencyDefect = errors.New("storage consistency defect")
	// ErrInvalidInput marks a malformed request.
	ErrInvalidInput = errors.New("invalid input")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
