package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tandafin/lending-engine/internal/domain"
)

type repaymentRepository struct {
	db *sqlx.DB
}

func NewRepaymentRepository(db *sqlx.DB) RepaymentRepository {
	return &repaymentRepository{db: db}
}

func (r *repaymentRepository) Create(ctx context.Context, tx *sqlx.Tx, repayment *domain.Repayment, splits []*domain.RepaymentSplit) error {
	query := `
		INSERT INTO repayments (id, company_id, loan_id, borrower_id, collected_by, amount, from_index, to_index, carry_remainder, partial, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := tx.ExecContext(ctx, query,
		repayment.ID,
		repayment.CompanyID,
		repayment.LoanID,
		repayment.BorrowerID,
		repayment.CollectedBy,
		repayment.Amount,
		repayment.FromIndex,
		repayment.ToIndex,
		repayment.CarryRemainder,
		repayment.Partial,
		repayment.CreatedAt,
	)
	if err != nil {
		return err
	}

	splitQuery := `
		INSERT INTO repayment_splits (id, repayment_id, wallet_id, amount)
		VALUES ($1, $2, $3, $4)
	`

	for _, split := range splits {
		_, err := tx.ExecContext(ctx, splitQuery,
			split.ID,
			split.RepaymentID,
			split.WalletID,
			split.Amount,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *repaymentRepository) ListByLoan(ctx context.Context, companyID, loanID uuid.UUID) ([]*domain.Repayment, error) {
	query := `
		SELECT id, company_id, loan_id, borrower_id, collected_by, amount, from_index, to_index, carry_remainder, partial, created_at
		FROM repayments
		WHERE company_id = $1 AND loan_id = $2
		ORDER BY created_at DESC
	`

	var repayments []*domain.Repayment
	err := r.db.SelectContext(ctx, &repayments, query, companyID, loanID)
	if err != nil {
		return nil, err
	}

	return repayments, nil
}

func (r *repaymentRepository) CollectionReport(ctx context.Context, companyID uuid.UUID) (*domain.CollectionReport, error) {
	query := `
		SELECT
			COALESCE(SUM(amount), 0)   AS total_collected,
			COUNT(*)                   AS repayment_count
		FROM repayments
		WHERE company_id = $1
	`

	report := domain.CollectionReport{CompanyID: companyID}
	row := r.db.QueryRowxContext(ctx, query, companyID)
	if err := row.Scan(&report.TotalCollected, &report.RepaymentCount); err != nil {
		return nil, err
	}

	loanQuery := `
		SELECT
			COUNT(*)                           AS active_loans,
			COALESCE(SUM(pending_balance), 0)  AS total_pending
		FROM loans
		WHERE company_id = $1 AND status = $2
	`

	row = r.db.QueryRowxContext(ctx, loanQuery, companyID, domain.LoanStatusActive)
	if err := row.Scan(&report.ActiveLoans, &report.TotalPending); err != nil {
		return nil, err
	}

	return &report, nil
}
