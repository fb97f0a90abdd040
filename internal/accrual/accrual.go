// Package accrual holds the pure installment arithmetic shared by
// origination and collection. Nothing here touches storage or the clock;
// callers pass the current time in.
package accrual

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tandafin/lending-engine/internal/domain"
)

const hoursPerDay = 24

// DailyTerms are the repayment rules of a daily-installment loan.
type DailyTerms struct {
	StartDate         time.Time
	InstallmentAmount int64
	TotalInstallments int
	PenaltyPerUnit    int64
}

// DailyStatus is the accrual view of a daily loan at a point in time.
type DailyStatus struct {
	ElapsedDays      int
	Overdue          bool
	OverdueCount     int
	SuggestedPenalty int64
}

// DailyLoanStatus computes how many installment days have elapsed since the
// loan started (ceiling of whole days), whether the schedule has run past
// its total, and the suggested penalty for the overdue days. Never errors;
// a loan still inside its schedule reports zero overdue and zero penalty.
func DailyLoanStatus(terms DailyTerms, now time.Time) DailyStatus {
	status := DailyStatus{}
	if !now.After(terms.StartDate) {
		return status
	}

	elapsed := now.Sub(terms.StartDate)
	days := int(elapsed / (hoursPerDay * time.Hour))
	if elapsed%(hoursPerDay*time.Hour) != 0 {
		days++
	}
	status.ElapsedDays = days

	if days > terms.TotalInstallments {
		status.Overdue = true
		status.OverdueCount = days - terms.TotalInstallments
		status.SuggestedPenalty = int64(status.OverdueCount) * terms.PenaltyPerUnit
	}
	return status
}

// PeriodInterest computes one period's interest on a periodic loan:
// principal × rate / 100, rounded half-up to minor units.
func PeriodInterest(principal int64, rate decimal.Decimal) int64 {
	interest := decimal.NewFromInt(principal).Mul(rate).Div(decimal.NewFromInt(100))
	return interest.Round(0).IntPart()
}

// UpfrontInterest computes the interest deducted from the disbursement at
// origination. Daily loans never deduct interest upfront; periodic loans do
// only when the caller enables it.
func UpfrontInterest(kind string, enabled bool, principal int64, rate decimal.Decimal) int64 {
	if !enabled || kind != domain.LoanKindPeriodic {
		return 0
	}
	return PeriodInterest(principal, rate)
}

// DeductionAmount resolves one configured deduction to minor units: a fixed
// value is taken verbatim, a percentage is applied to the principal.
func DeductionAmount(mode string, value decimal.Decimal, principal int64) int64 {
	if mode == domain.DeductionModePercent {
		return decimal.NewFromInt(principal).Mul(value).Div(decimal.NewFromInt(100)).Round(0).IntPart()
	}
	return value.Round(0).IntPart()
}

// ScheduledTotal is the full amount a loan is expected to repay: the
// caller-supplied installment × total for daily loans (stored verbatim,
// even when it disagrees with principal), the principal for periodic ones.
func ScheduledTotal(kind string, principal, installmentAmount int64, totalInstallments int) int64 {
	if kind == domain.LoanKindDaily {
		return installmentAmount * int64(totalInstallments)
	}
	return principal
}

// ApplyToSchedule allocates a payment against a daily schedule. The carry
// from earlier partial payments is added to the amount; whole installments
// are covered and the rest becomes the new carry.
func ApplyToSchedule(installmentAmount, carry, amount int64) (unitsCovered int, newCarry int64) {
	if installmentAmount <= 0 {
		return 0, carry + amount
	}
	available := amount + carry
	return int(available / installmentAmount), available % installmentAmount
}
