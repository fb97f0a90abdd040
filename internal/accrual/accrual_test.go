package accrual

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tandafin/lending-engine/internal/domain"
)

func TestDailyLoanStatus(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	terms := DailyTerms{
		StartDate:         start,
		InstallmentAmount: 100,
		TotalInstallments: 30,
		PenaltyPerUnit:    10,
	}

	tests := []struct {
		name     string
		now      time.Time
		expected DailyStatus
	}{
		{
			name:     "before start nothing has elapsed",
			now:      start.Add(-time.Hour),
			expected: DailyStatus{},
		},
		{
			name:     "exactly at start",
			now:      start,
			expected: DailyStatus{},
		},
		{
			name:     "partial day counts as a full day",
			now:      start.Add(6 * time.Hour),
			expected: DailyStatus{ElapsedDays: 1},
		},
		{
			name:     "exact day boundary does not round up",
			now:      start.AddDate(0, 0, 10),
			expected: DailyStatus{ElapsedDays: 10},
		},
		{
			name:     "last scheduled day is not overdue",
			now:      start.AddDate(0, 0, 30),
			expected: DailyStatus{ElapsedDays: 30},
		},
		{
			name: "three days past schedule",
			now:  start.AddDate(0, 0, 33),
			expected: DailyStatus{
				ElapsedDays:      33,
				Overdue:          true,
				OverdueCount:     3,
				SuggestedPenalty: 30,
			},
		},
		{
			name: "an hour into the next day already counts it",
			now:  start.AddDate(0, 0, 30).Add(time.Hour),
			expected: DailyStatus{
				ElapsedDays:      31,
				Overdue:          true,
				OverdueCount:     1,
				SuggestedPenalty: 10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DailyLoanStatus(terms, tt.now))
		})
	}
}

func TestPeriodInterest(t *testing.T) {
	tests := []struct {
		name      string
		principal int64
		rate      decimal.Decimal
		expected  int64
	}{
		{"whole percent", 10000, decimal.NewFromInt(20), 2000},
		{"fractional rate rounds half up", 10000, decimal.NewFromFloat(0.125), 13},
		{"rounds down below half", 10000, decimal.NewFromFloat(0.124), 12},
		{"zero rate", 10000, decimal.Zero, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PeriodInterest(tt.principal, tt.rate))
		})
	}
}

func TestUpfrontInterest(t *testing.T) {
	rate := decimal.NewFromInt(10)

	assert.Equal(t, int64(1000), UpfrontInterest(domain.LoanKindPeriodic, true, 10000, rate))
	assert.Equal(t, int64(0), UpfrontInterest(domain.LoanKindPeriodic, false, 10000, rate))
	assert.Equal(t, int64(0), UpfrontInterest(domain.LoanKindDaily, true, 10000, rate))
}

func TestDeductionAmount(t *testing.T) {
	assert.Equal(t, int64(500), DeductionAmount(domain.DeductionModeFixed, decimal.NewFromInt(500), 10000))
	assert.Equal(t, int64(300), DeductionAmount(domain.DeductionModePercent, decimal.NewFromInt(3), 10000))
	assert.Equal(t, int64(25), DeductionAmount(domain.DeductionModePercent, decimal.NewFromFloat(0.25), 10000))
}

func TestScheduledTotal(t *testing.T) {
	// the daily schedule is taken verbatim even when it disagrees with principal
	assert.Equal(t, int64(12000), ScheduledTotal(domain.LoanKindDaily, 10000, 100, 120))
	assert.Equal(t, int64(10000), ScheduledTotal(domain.LoanKindPeriodic, 10000, 0, 0))
}

func TestApplyToSchedule(t *testing.T) {
	tests := []struct {
		name          string
		installment   int64
		carry         int64
		amount        int64
		expectedUnits int
		expectedCarry int64
	}{
		{"exact single installment", 100, 0, 100, 1, 0},
		{"partial payment becomes carry", 100, 0, 40, 0, 40},
		{"carry completes an installment", 100, 40, 70, 1, 10},
		{"several installments at once", 100, 0, 350, 3, 50},
		{"zero installment accumulates only", 0, 40, 70, 0, 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, carry := ApplyToSchedule(tt.installment, tt.carry, tt.amount)
			assert.Equal(t, tt.expectedUnits, units)
			assert.Equal(t, tt.expectedCarry, carry)
		})
	}
}
