package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	WalletKindCash = "cash"
	WalletKindBank = "bank"
)

// Wallet is a tenant-owned named balance used as the source of disbursed
// funds and the sink of collected repayments. All amounts are signed minor
// currency units. Balance may only change through capital movements.
type Wallet struct {
	ID             uuid.UUID `json:"id" db:"id"`
	CompanyID      uuid.UUID `json:"company_id" db:"company_id"`
	Name           string    `json:"name" db:"name"`
	Kind           string    `json:"kind" db:"kind"`
	OpeningBalance int64     `json:"opening_balance" db:"opening_balance"`
	Balance        int64     `json:"balance" db:"balance"`
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// SplitLine assigns a portion of a disbursement or repayment to one wallet.
type SplitLine struct {
	WalletID uuid.UUID `json:"wallet_id" validate:"required"`
	Amount   int64     `json:"amount" validate:"required,gt=0"`
}

// SplitTotal sums the amounts of a wallet split.
func SplitTotal(split []SplitLine) int64 {
	var total int64
	for _, line := range split {
		total += line.Amount
	}
	return total
}

// DTOs for requests and responses

type CreateWalletRequest struct {
	Name           string `json:"name" validate:"required"`
	Kind           string `json:"kind" validate:"required,oneof=cash bank"`
	OpeningBalance int64  `json:"opening_balance" validate:"gte=0"`
}

type ManualMovementRequest struct {
	Amount      int64  `json:"amount" validate:"required,ne=0"`
	Description string `json:"description" validate:"required"`
}

// WalletMovementsResponse pairs a wallet with its audit history.
// MovementTotal is the signed sum of all movements; opening balance plus
// this total must equal the current balance.
type WalletMovementsResponse struct {
	Wallet        *Wallet            `json:"wallet"`
	Movements     []*CapitalMovement `json:"movements"`
	MovementTotal int64              `json:"movement_total"`
}
