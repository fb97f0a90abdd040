package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tandafin/lending-engine/internal/domain"
)

const loanColumns = `
	id, company_id, borrower_id, kind, principal, start_date, rollover_of,
	net_disbursement, terms, installment_amount, total_installments,
	penalty_per_unit, last_paid_index, carry, interest_rate, compounding,
	amount_paid, pending_balance, status, bad_debt_reason, created_at, updated_at
`

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, tx *sqlx.Tx, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := tx.ExecContext(ctx, query,
		loan.ID,
		loan.CompanyID,
		loan.BorrowerID,
		loan.Kind,
		loan.Principal,
		loan.StartDate,
		loan.RolloverOf,
		loan.NetDisbursement,
		loan.Terms,
		loan.InstallmentAmount,
		loan.TotalInstallments,
		loan.PenaltyPerUnit,
		loan.LastPaidIndex,
		loan.Carry,
		loan.InterestRate,
		loan.Compounding,
		loan.AmountPaid,
		loan.PendingBalance,
		loan.Status,
		loan.BadDebtReason,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) CreateDeductions(ctx context.Context, tx *sqlx.Tx, deductions []*domain.Deduction) error {
	query := `
		INSERT INTO loan_deductions (id, loan_id, name, mode, value, timing, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, deduction := range deductions {
		_, err := tx.ExecContext(ctx, query,
			deduction.ID,
			deduction.LoanID,
			deduction.Name,
			deduction.Mode,
			deduction.Value,
			deduction.Timing,
			deduction.Amount,
			deduction.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *loanRepository) GetByID(ctx context.Context, companyID, loanID uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE company_id = $1 AND id = $2`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, companyID, loanID)
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, companyID, loanID uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE company_id = $1 AND id = $2 FOR UPDATE`

	var loan domain.Loan
	err := tx.GetContext(ctx, &loan, query, companyID, loanID)
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) UpdateSummary(ctx context.Context, tx *sqlx.Tx, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET last_paid_index = $3, carry = $4, amount_paid = $5, pending_balance = $6, status = $7, updated_at = $8
		WHERE company_id = $1 AND id = $2
	`

	result, err := tx.ExecContext(ctx, query,
		loan.CompanyID,
		loan.ID,
		loan.LastPaidIndex,
		loan.Carry,
		loan.AmountPaid,
		loan.PendingBalance,
		loan.Status,
		time.Now(),
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errNoRows
	}

	return nil
}

func (r *loanRepository) GetDeductions(ctx context.Context, loanID uuid.UUID) ([]*domain.Deduction, error) {
	query := `
		SELECT id, loan_id, name, mode, value, timing, amount, created_at
		FROM loan_deductions
		WHERE loan_id = $1
		ORDER BY created_at
	`

	var deductions []*domain.Deduction
	err := r.db.SelectContext(ctx, &deductions, query, loanID)
	if err != nil {
		return nil, err
	}

	return deductions, nil
}

func (r *loanRepository) ListActiveDaily(ctx context.Context) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE kind = $1 AND status = $2 ORDER BY created_at`

	var loans []*domain.Loan
	err := r.db.SelectContext(ctx, &loans, query, domain.LoanKindDaily, domain.LoanStatusActive)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) MarkBadDebt(ctx context.Context, tx *sqlx.Tx, companyID, loanID uuid.UUID, reason string) error {
	query := `
		UPDATE loans
		SET status = $3, bad_debt_reason = $4, updated_at = $5
		WHERE company_id = $1 AND id = $2
	`

	result, err := tx.ExecContext(ctx, query, companyID, loanID, domain.LoanStatusBadDebt, reason, time.Now())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errNoRows
	}

	return nil
}

func (r *loanRepository) CreatePenalty(ctx context.Context, tx *sqlx.Tx, penalty *domain.LoanPenalty) error {
	query := `
		INSERT INTO loan_penalties (id, company_id, loan_id, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.ExecContext(ctx, query,
		penalty.ID,
		penalty.CompanyID,
		penalty.LoanID,
		penalty.Amount,
		penalty.Reason,
		penalty.CreatedAt,
	)

	return err
}
