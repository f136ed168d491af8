package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/medassure/claims-backoffice/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (id, claim_id, user_id, name, original_name, doc_type, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, doc.ID, doc.ClaimID, doc.UserID, doc.Name, doc.OriginalName, string(doc.DocType), doc.CreatedAt)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "insert document", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, claim_id, user_id, name, original_name, doc_type, created_at
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "get document", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByClaim(ctx context.Context, claimID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, claim_id, user_id, name, original_name, doc_type, created_at
FROM documents
WHERE claim_id = $1
ORDER BY created_at ASC, id ASC
`, claimID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list documents", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan document", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate documents", err)
	}
	return out, nil
}

func (r *DocumentRepository) CountByClaim(ctx context.Context, claimID string) (int, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE claim_id = $1`, claimID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "count documents", err)
	}
	return count, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "delete document", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "delete document rows affected", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete document", fmt.Errorf("id=%s", id))
	}
	return nil
}

// DeleteByClaim removes every document row for the claim and reports how
// many were removed. Removing zero rows is not an error.
func (r *DocumentRepository) DeleteByClaim(ctx context.Context, claimID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE claim_id = $1`, claimID)
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "delete claim documents", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "delete claim documents rows affected", err)
	}
	return int(rows), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var doc domain.Document
	var docType string
	err := row.Scan(
		&doc.ID,
		&doc.ClaimID,
		&doc.UserID,
		&doc.Name,
		&doc.OriginalName,
		&docType,
		&doc.CreatedAt,
	)
	if err != nil {
		return domain.Document{}, err
	}
	doc.DocType = domain.DocumentType(docType)
	return doc, nil
}
