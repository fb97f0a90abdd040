package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanKindDaily    = "daily"
	LoanKindPeriodic = "periodic"
)

const (
	LoanStatusActive   = "active"
	LoanStatusClosed   = "closed"
	LoanStatusRollover = "rollover"
	LoanStatusBadDebt  = "bad_debt"
)

const (
	DeductionModeFixed   = "fixed"
	DeductionModePercent = "percent"
)

const (
	DeductionTimingUpfront = "upfront"
	DeductionTimingEnd     = "end"
)

const (
	CompoundingSimple  = "simple"
	CompoundingMonthly = "monthly"
)

// Loan holds the terms, repayment rules and running summary of one loan.
// Daily loans repay a fixed installment per calendar day; periodic loans
// accrue percentage interest on the principal per period. The summary
// columns (amount_paid, pending_balance, last_paid_index, carry) are the
// authoritative repayment state and change only inside a collection or
// penalty transaction.
type Loan struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	CompanyID       uuid.UUID  `json:"company_id" db:"company_id"`
	BorrowerID      uuid.UUID  `json:"borrower_id" db:"borrower_id"`
	Kind            string     `json:"kind" db:"kind"`
	Principal       int64      `json:"principal" db:"principal"`
	StartDate       time.Time  `json:"start_date" db:"start_date"`
	RolloverOf      *uuid.UUID `json:"rollover_of,omitempty" db:"rollover_of"`
	NetDisbursement int64      `json:"net_disbursement" db:"net_disbursement"`
	Terms           string     `json:"terms" db:"terms"`

	// Daily rules. Installment and total are stored exactly as supplied by
	// the caller, never re-derived from principal.
	InstallmentAmount int64 `json:"installment_amount" db:"installment_amount"`
	TotalInstallments int   `json:"total_installments" db:"total_installments"`
	PenaltyPerUnit    int64 `json:"penalty_per_unit" db:"penalty_per_unit"`
	LastPaidIndex     int   `json:"last_paid_index" db:"last_paid_index"`
	Carry             int64 `json:"carry" db:"carry"`

	// Periodic rules.
	InterestRate decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	Compounding  string          `json:"compounding" db:"compounding"`

	AmountPaid     int64   `json:"amount_paid" db:"amount_paid"`
	PendingBalance int64   `json:"pending_balance" db:"pending_balance"`
	Status         string  `json:"status" db:"status"`
	BadDebtReason  *string `json:"bad_debt_reason,omitempty" db:"bad_debt_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsTerminal reports whether the loan can no longer accept repayments.
func (l *Loan) IsTerminal() bool {
	return l.Status != LoanStatusActive
}

// Deduction is one line netted against the principal at origination
// (timing "upfront") or carried for reporting (timing "end"). Amount is the
// computed monetary value; Value is the configured fixed amount or percentage.
type Deduction struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	LoanID    uuid.UUID       `json:"loan_id" db:"loan_id"`
	Name      string          `json:"name" db:"name"`
	Mode      string          `json:"mode" db:"mode"`
	Value     decimal.Decimal `json:"value" db:"value"`
	Timing    string          `json:"timing" db:"timing"`
	Amount    int64           `json:"amount" db:"amount"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// LoanPenalty is the structured audit record of one manual penalty
// application. It increases the loan's pending balance without touching
// any wallet.
type LoanPenalty struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CompanyID uuid.UUID `json:"company_id" db:"company_id"`
	LoanID    uuid.UUID `json:"loan_id" db:"loan_id"`
	Amount    int64     `json:"amount" db:"amount"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type DeductionInput struct {
	Name   string          `json:"name" validate:"required"`
	Mode   string          `json:"mode" validate:"required,oneof=fixed percent"`
	Value  decimal.Decimal `json:"value" validate:"required"`
	Timing string          `json:"timing" validate:"required,oneof=upfront end"`
}

type DailyRulesInput struct {
	InstallmentAmount int64 `json:"installment_amount" validate:"required,gt=0"`
	TotalInstallments int   `json:"total_installments" validate:"required,gt=0"`
	PenaltyPerUnit    int64 `json:"penalty_per_unit" validate:"gte=0"`
}

// PeriodicRulesInput carries a periodic loan's rate rules. A zero rate is
// legitimate (interest-free loan), so the rate is range-checked by the
// origination service rather than tagged required here.
type PeriodicRulesInput struct {
	InterestRate decimal.Decimal `json:"interest_rate"`
	Compounding  string          `json:"compounding" validate:"required,oneof=simple monthly"`
}

type DisburseLoanRequest struct {
	BorrowerID      uuid.UUID           `json:"borrower_id" validate:"required"`
	Kind            string              `json:"kind" validate:"required,oneof=daily periodic"`
	Principal       int64               `json:"principal" validate:"required,gt=0"`
	StartDate       time.Time           `json:"start_date"`
	Deductions      []DeductionInput    `json:"deductions" validate:"dive"`
	UpfrontInterest bool                `json:"upfront_interest"`
	RolloverLoanID  *uuid.UUID          `json:"rollover_loan_id,omitempty"`
	Split           []SplitLine         `json:"split" validate:"required,min=1,dive"`
	Terms           string              `json:"terms"`
	Daily           *DailyRulesInput    `json:"daily,omitempty"`
	Periodic        *PeriodicRulesInput `json:"periodic,omitempty"`
}

type DisburseLoanResponse struct {
	Loan       *Loan        `json:"loan"`
	Deductions []*Deduction `json:"deductions"`
}

type LoanDetail struct {
	Loan       *Loan        `json:"loan"`
	Deductions []*Deduction `json:"deductions"`
}

type PenaltyRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required"`
}

type WriteOffRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type LoanStatusResponse struct {
	LoanID           uuid.UUID `json:"loan_id"`
	Status           string    `json:"status"`
	ElapsedDays      int       `json:"elapsed_days"`
	Overdue          bool      `json:"overdue"`
	OverdueCount     int       `json:"overdue_count"`
	SuggestedPenalty int64     `json:"suggested_penalty"`
	AmountPaid       int64     `json:"amount_paid"`
	PendingBalance   int64     `json:"pending_balance"`
}
