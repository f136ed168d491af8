package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medassure/claims-backoffice/internal/core/domain"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportBundleQuery = `
SELECT r.id, r.claim_id, r.user_id, r.combined_summary, r.notes, r.approved, r.created_at, r.updated_at,
	t.id, t.text, d.id, d.text
FROM reports r
JOIN alternate_treatments t ON t.report_id = r.id
JOIN doc_wise_reports d ON d.report_id = r.id
`

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*domain.ReportBundle, error) {
	row := r.db.QueryRowContext(ctx, reportBundleQuery+`WHERE r.id = $1`, id)

	bundle, err := scanBundle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get report", fmt.Errorf("id=%s", id))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "get report", err)
	}
	return bundle, nil
}

func (r *ReportRepository) GetByClaim(ctx context.Context, claimID string) (*domain.ReportBundle, error) {
	row := r.db.QueryRowContext(ctx, reportBundleQuery+`WHERE r.claim_id = $1`, claimID)

	bundle, err := scanBundle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get claim report", fmt.Errorf("claim=%s", claimID))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "get claim report", err)
	}
	return bundle, nil
}

// CreateBundle inserts the report and both owned artifacts in one
// transaction. Either all three rows land or none do.
func (r *ReportRepository) CreateBundle(ctx context.Context, report *domain.Report, treatments, docWise string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "begin report tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO reports (id, claim_id, user_id, combined_summary, notes, approved, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, report.ID, report.ClaimID, report.UserID, report.CombinedSummary, report.Notes, string(report.Approved),
		report.CreatedAt, report.UpdatedAt)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "insert report", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO alternate_treatments (id, report_id, text) VALUES ($1,$2,$3)
`, uuid.NewString(), report.ID, treatments)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "insert treatments", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO doc_wise_reports (id, report_id, text) VALUES ($1,$2,$3)
`, uuid.NewString(), report.ID, docWise)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "insert doc-wise report", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrPersistence, "commit report tx", err)
	}
	return nil
}

func (r *ReportRepository) Update(ctx context.Context, id string, update domain.ReportUpdate) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE reports
SET combined_summary = COALESCE($2, combined_summary),
	notes = COALESCE($3, notes),
	approved = $4,
	updated_at = $5
WHERE id = $1
`, id, update.CombinedSummary, update.Notes, string(update.Approved), time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "update report", err)
	}
	return requireRow(result, "update report", id)
}

func (r *ReportRepository) UpdateTreatments(ctx context.Context, reportID, text string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE alternate_treatments SET text = $2 WHERE report_id = $1
`, reportID, text)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "update treatments", err)
	}
	return requireRow(result, "update treatments", reportID)
}

func (r *ReportRepository) UpdateDocWise(ctx context.Context, reportID, text string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE doc_wise_reports SET text = $2 WHERE report_id = $1
`, reportID, text)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "update doc-wise report", err)
	}
	return requireRow(result, "update doc-wise report", reportID)
}

// Delete removes the report row. The owned artifact rows go with it via
// the cascading foreign keys.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "delete report", err)
	}
	return requireRow(result, "delete report", id)
}

// DeleteByClaim clears the claim's report if one exists. Clearing an
// absent report is not an error.
func (r *ReportRepository) DeleteByClaim(ctx context.Context, claimID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE claim_id = $1`, claimID)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "delete claim report", err)
	}
	return nil
}

func requireRow(result sql.Result, operation, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, operation+" rows affected", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}

func scanBundle(row rowScanner) (*domain.ReportBundle, error) {
	var bundle domain.ReportBundle
	var approved string
	err := row.Scan(
		&bundle.Report.ID,
		&bundle.Report.ClaimID,
		&bundle.Report.UserID,
		&bundle.Report.CombinedSummary,
		&bundle.Report.Notes,
		&approved,
		&bundle.Report.CreatedAt,
		&bundle.Report.UpdatedAt,
		&bundle.AlternateTreatments.ID,
		&bundle.AlternateTreatments.Text,
		&bundle.DocWiseReport.ID,
		&bundle.DocWiseReport.Text,
	)
	if err != nil {
		return nil, err
	}
	bundle.Report.Approved = domain.ApprovalStatus(approved)
	bundle.AlternateTreatments.ReportID = bundle.Report.ID
	bundle.DocWiseReport.ReportID = bundle.Report.ID
	return &bundle, nil
}
