package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tandafin/lending-engine/internal/domain"
)

type movementRepository struct {
	db *sqlx.DB
}

func NewMovementRepository(db *sqlx.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, tx *sqlx.Tx, movement *domain.CapitalMovement) error {
	query := `
		INSERT INTO capital_movements (id, company_id, wallet_id, loan_id, amount, category, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.ExecContext(ctx, query,
		movement.ID,
		movement.CompanyID,
		movement.WalletID,
		movement.LoanID,
		movement.Amount,
		movement.Category,
		movement.Description,
		movement.CreatedAt,
	)

	return err
}

func (r *movementRepository) ListByWallet(ctx context.Context, companyID, walletID uuid.UUID) ([]*domain.CapitalMovement, error) {
	query := `
		SELECT id, company_id, wallet_id, loan_id, amount, category, description, created_at
		FROM capital_movements
		WHERE company_id = $1 AND wallet_id = $2
		ORDER BY created_at DESC
	`

	var movements []*domain.CapitalMovement
	err := r.db.SelectContext(ctx, &movements, query, companyID, walletID)
	if err != nil {
		return nil, err
	}

	return movements, nil
}

func (r *movementRepository) SumByWallet(ctx context.Context, companyID, walletID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM capital_movements
		WHERE company_id = $1 AND wallet_id = $2
	`

	var sum int64
	err := r.db.GetContext(ctx, &sum, query, companyID, walletID)
	if err != nil {
		return 0, err
	}

	return sum, nil
}
