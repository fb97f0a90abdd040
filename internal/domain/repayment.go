package domain

import (
	"time"

	"github.com/google/uuid"
)

// Repayment is the immutable record of one collection event. For daily
// loans FromIndex/ToIndex bound the installment indexes fully covered by
// the payment (inclusive; FromIndex > ToIndex means none) and
// CarryRemainder is the partial amount rolled into the next payment.
type Repayment struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	CompanyID      uuid.UUID  `json:"company_id" db:"company_id"`
	LoanID         uuid.UUID  `json:"loan_id" db:"loan_id"`
	BorrowerID     uuid.UUID  `json:"borrower_id" db:"borrower_id"`
	CollectedBy    *uuid.UUID `json:"collected_by,omitempty" db:"collected_by"`
	Amount         int64      `json:"amount" db:"amount"`
	FromIndex      int        `json:"from_index" db:"from_index"`
	ToIndex        int        `json:"to_index" db:"to_index"`
	CarryRemainder int64      `json:"carry_remainder" db:"carry_remainder"`
	Partial        bool       `json:"partial" db:"partial"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// RepaymentSplit is one wallet's share of a repayment.
type RepaymentSplit struct {
	ID          uuid.UUID `json:"id" db:"id"`
	RepaymentID uuid.UUID `json:"repayment_id" db:"repayment_id"`
	WalletID    uuid.UUID `json:"wallet_id" db:"wallet_id"`
	Amount      int64     `json:"amount" db:"amount"`
}

// DTOs for requests and responses

type CollectRequest struct {
	Amount      int64       `json:"amount" validate:"required,gt=0"`
	Split       []SplitLine `json:"split" validate:"required,min=1,dive"`
	CollectedBy *uuid.UUID  `json:"collected_by,omitempty"`
}

type CollectResponse struct {
	Repayment *Repayment `json:"repayment"`
	Loan      *Loan      `json:"loan"`
}
