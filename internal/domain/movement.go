package domain

import (
	"time"

	"github.com/google/uuid"
)

// Capital movement categories
const (
	MovementOriginationDebit = "origination_debit"
	MovementCollectionCredit = "collection_credit"
	MovementManualInjection  = "manual_injection"
	MovementManualWithdrawal = "manual_withdrawal"
)

// CapitalMovement is one append-only audit entry against a wallet. Amount
// is signed: debits are negative, credits positive. For every wallet the
// opening balance plus the sum of its movements equals the current balance.
type CapitalMovement struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CompanyID   uuid.UUID  `json:"company_id" db:"company_id"`
	WalletID    uuid.UUID  `json:"wallet_id" db:"wallet_id"`
	LoanID      *uuid.UUID `json:"loan_id,omitempty" db:"loan_id"`
	Amount      int64      `json:"amount" db:"amount"`
	Category    string     `json:"category" db:"category"`
	Description string     `json:"description" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// CollectionReport aggregates per-tenant collection totals for the
// read-only dashboard consumer.
type CollectionReport struct {
	CompanyID      uuid.UUID `json:"company_id"`
	TotalCollected int64     `json:"total_collected"`
	RepaymentCount int       `json:"repayment_count"`
	ActiveLoans    int       `json:"active_loans"`
	TotalPending   int64     `json:"total_pending"`
	GeneratedAt    time.Time `json:"generated_at"`
}
