package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/medassure/claims-backoffice/internal/core/domain"
	"github.com/medassure/claims-backoffice/internal/core/ports"
)

// ManageReportsUseCase reads and maintains persisted reports. Reads are
// open to the owning policy holder and assessors; every mutation is
// assessor-only.
type ManageReportsUseCase struct {
	reports ports.ReportRepository
}

func NewManageReportsUseCase(reports ports.ReportRepository) *ManageReportsUseCase {
	return &ManageReportsUseCase{reports: reports}
}

func (uc *ManageReportsUseCase) Get(ctx context.Context, caller domain.Caller, reportID string) (*domain.ReportBundle, error) {
	bundle, err := uc.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	if !domain.CanRead(bundle.Report.UserID, caller) {
		return nil, domain.WrapError(domain.ErrForbidden, "get report", errors.New("caller may not read report"))
	}
	return bundle, nil
}

func (uc *ManageReportsUseCase) GetByClaim(ctx context.Context, caller domain.Caller, claimID string) (*domain.ReportBundle, error) {
	bundle, err := uc.reports.GetByClaim(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim report: %w", err)
	}
	if !domain.CanRead(bundle.Report.UserID, caller) {
		return nil, domain.WrapError(domain.ErrForbidden, "get claim report", errors.New("caller may not read report"))
	}
	return bundle, nil
}

func (uc *ManageReportsUseCase) Update(ctx context.Context, caller domain.Caller, reportID string, update domain.ReportUpdate) error {
	if !domain.IsAssessor(caller.Role) {
		return domain.WrapError(domain.ErrForbidden, "update report", errors.New("caller is not a claim assessor"))
	}
	if !update.Approved.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "update report", fmt.Errorf("approval status %q", update.Approved))
	}
	if err := uc.reports.Update(ctx, reportID, update); err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	return nil
}

func (uc *ManageReportsUseCase) UpdateTreatments(ctx context.Context, caller domain.Caller, reportID, text string) error {
	if !domain.IsAssessor(caller.Role) {
		return domain.WrapError(domain.ErrForbidden, "update treatments", errors.New("caller is not a claim assessor"))
	}
	if err := uc.reports.UpdateTreatments(ctx, reportID, text); err != nil {
		return fmt.Errorf("update treatments: %w", err)
	}
	return nil
}

func (uc *ManageReportsUseCase) UpdateDocWise(ctx context.Context, caller domain.Caller, reportID, text string) error {
	if !domain.IsAssessor(caller.Role) {
		return domain.WrapError(domain.ErrForbidden, "update doc-wise report", errors.New("caller is not a claim assessor"))
	}
	if err := uc.reports.UpdateDocWise(ctx, reportID, text); err != nil {
		return fmt.Errorf("update doc-wise report: %w", err)
	}
	return nil
}

func (uc *ManageReportsUseCase) Delete(ctx context.Context, caller domain.Caller, reportID string) error {
	if !domain.IsAssessor(caller.Role) {
		return domain.WrapError(domain.ErrForbidden, "delete report", errors.New("caller is not a claim assessor"))
	}
	if err := uc.reports.Delete(ctx, reportID); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}
