package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/medassure/claims-backoffice/internal/core/domain"
)

type ClaimRepository struct {
	db *sql.DB
}

func NewClaimRepository(db *sql.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) GetByID(ctx context.Context, id string) (*domain.Claim, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, policy_id, claim_amount, claim_type, date_of_intimation, date_of_admission,
	description, hospital_name, hospital_city, created_at, updated_at
FROM claims
WHERE id = $1
`, id)

	var claim domain.Claim
	var claimType string
	err := row.Scan(
		&claim.ID, &claim.UserID, &claim.PolicyID, &claim.ClaimAmount, &claimType,
		&claim.DateOfIntimation, &claim.DateOfAdmission, &claim.Description,
		&claim.HospitalName, &claim.HospitalCity, &claim.CreatedAt, &claim.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get claim", fmt.Errorf("id=%s", id))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "get claim", err)
	}
	claim.ClaimType = domain.ClaimType(claimType)
	return &claim, nil
}
