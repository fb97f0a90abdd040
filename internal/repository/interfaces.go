package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tandafin/lending-engine/internal/domain"
)

// TxRunner runs a function inside one database transaction. Commit-time
// serialization conflicts surface as TRANSACTION_ABORTED business errors.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// WalletRepository defines the interface for wallet ledger operations.
// Balance mutation happens only through AdjustBalance under a row lock
// taken by GetForUpdate, so concurrent draws on one wallet serialize.
type WalletRepository interface {
	// Create creates a new wallet
	Create(ctx context.Context, wallet *domain.Wallet) error

	// GetByID retrieves a wallet scoped to one tenant
	GetByID(ctx context.Context, companyID, walletID uuid.UUID) (*domain.Wallet, error)

	// List retrieves all wallets of a tenant
	List(ctx context.Context, companyID uuid.UUID) ([]*domain.Wallet, error)

	// Deactivate flags a wallet inactive; wallets are never deleted
	Deactivate(ctx context.Context, companyID, walletID uuid.UUID) error

	// GetForUpdate locks and retrieves a wallet row inside a transaction
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, companyID, walletID uuid.UUID) (*domain.Wallet, error)

	// AdjustBalance applies a signed delta to a locked wallet's balance
	AdjustBalance(ctx context.Context, tx *sqlx.Tx, companyID, walletID uuid.UUID, delta int64) error
}

// LoanRepository defines the interface for loan record operations
type LoanRepository interface {
	// Create creates a new loan inside a transaction
	Create(ctx context.Context, tx *sqlx.Tx, loan *domain.Loan) error

	// CreateDeductions persists a loan's deduction lines
	CreateDeductions(ctx context.Context, tx *sqlx.Tx, deductions []*domain.Deduction) error

	// GetByID retrieves a loan scoped to one tenant
	GetByID(ctx context.Context, companyID, loanID uuid.UUID) (*domain.Loan, error)

	// GetForUpdate locks and retrieves a loan row inside a transaction
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, companyID, loanID uuid.UUID) (*domain.Loan, error)

	// UpdateSummary persists summary, schedule position and status changes
	UpdateSummary(ctx context.Context, tx *sqlx.Tx, loan *domain.Loan) error

	// GetDeductions retrieves a loan's deduction lines
	GetDeductions(ctx context.Context, loanID uuid.UUID) ([]*domain.Deduction, error)

	// ListActiveDaily retrieves all active daily loans across tenants,
	// used by the overdue scan
	ListActiveDaily(ctx context.Context) ([]*domain.Loan, error)

	// CreatePenalty appends a structured penalty audit record
	CreatePenalty(ctx context.Context, tx *sqlx.Tx, penalty *domain.LoanPenalty) error

	// MarkBadDebt writes off a loan manually, keeping the pending balance
	MarkBadDebt(ctx context.Context, tx *sqlx.Tx, companyID, loanID uuid.UUID, reason string) error
}

// RepaymentRepository defines the interface for repayment transaction records
type RepaymentRepository interface {
	// Create persists one immutable repayment plus its wallet split
	Create(ctx context.Context, tx *sqlx.Tx, repayment *domain.Repayment, splits []*domain.RepaymentSplit) error

	// ListByLoan retrieves all repayments for a loan
	ListByLoan(ctx context.Context, companyID, loanID uuid.UUID) ([]*domain.Repayment, error)

	// CollectionReport aggregates collection totals for one tenant
	CollectionReport(ctx context.Context, companyID uuid.UUID) (*domain.CollectionReport, error)
}

// MovementRepository defines the interface for the append-only audit trail
type MovementRepository interface {
	// Create appends one capital movement inside a transaction
	Create(ctx context.Context, tx *sqlx.Tx, movement *domain.CapitalMovement) error

	// ListByWallet retrieves a wallet's movement history, newest first
	ListByWallet(ctx context.Context, companyID, walletID uuid.UUID) ([]*domain.CapitalMovement, error)

	// SumByWallet totals the signed movements recorded against a wallet
	SumByWallet(ctx context.Context, companyID, walletID uuid.UUID) (int64, error)
}
