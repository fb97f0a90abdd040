package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/tandafin/lending-engine/internal/domain"
)

// fakeTxRunner runs the transactional closure directly; each repository
// mock ignores the nil tx it is handed.
type fakeTxRunner struct{}

func (f *fakeTxRunner) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetByID(ctx context.Context, companyID, walletID uuid.UUID) (*domain.Wallet, error) {
	args := m.Called(ctx, companyID, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) List(ctx context.Context, companyID uuid.UUID) ([]*domain.Wallet, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Deactivate(ctx context.Context, companyID, walletID uuid.UUID) error {
	args := m.Called(ctx, companyID, walletID)
	return args.Error(0)
}

func (m *MockWalletRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, companyID, walletID uuid.UUID) (*domain.Wallet, error) {
	args := m.Called(ctx, tx, companyID, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) AdjustBalance(ctx context.Context, tx *sqlx.Tx, companyID, walletID uuid.UUID, delta int64) error {
	args := m.Called(ctx, tx, companyID, walletID, delta)
	return args.Error(0)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, tx *sqlx.Tx, loan *domain.Loan) error {
	args := m.Called(ctx, tx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) CreateDeductions(ctx context.Context, tx *sqlx.Tx, deductions []*domain.Deduction) error {
	args := m.Called(ctx, tx, deductions)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, companyID, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, companyID, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, companyID, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, tx, companyID, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) UpdateSummary(ctx context.Context, tx *sqlx.Tx, loan *domain.Loan) error {
	args := m.Called(ctx, tx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetDeductions(ctx context.Context, loanID uuid.UUID) ([]*domain.Deduction, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Deduction), args.Error(1)
}

func (m *MockLoanRepository) ListActiveDaily(ctx context.Context) ([]*domain.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) CreatePenalty(ctx context.Context, tx *sqlx.Tx, penalty *domain.LoanPenalty) error {
	args := m.Called(ctx, tx, penalty)
	return args.Error(0)
}

func (m *MockLoanRepository) MarkBadDebt(ctx context.Context, tx *sqlx.Tx, companyID, loanID uuid.UUID, reason string) error {
	args := m.Called(ctx, tx, companyID, loanID, reason)
	return args.Error(0)
}

type MockRepaymentRepository struct {
	mock.Mock
}

func (m *MockRepaymentRepository) Create(ctx context.Context, tx *sqlx.Tx, repayment *domain.Repayment, splits []*domain.RepaymentSplit) error {
	args := m.Called(ctx, tx, repayment, splits)
	return args.Error(0)
}

func (m *MockRepaymentRepository) ListByLoan(ctx context.Context, companyID, loanID uuid.UUID) ([]*domain.Repayment, error) {
	args := m.Called(ctx, companyID, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Repayment), args.Error(1)
}

func (m *MockRepaymentRepository) CollectionReport(ctx context.Context, companyID uuid.UUID) (*domain.CollectionReport, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionReport), args.Error(1)
}

type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Create(ctx context.Context, tx *sqlx.Tx, movement *domain.CapitalMovement) error {
	args := m.Called(ctx, tx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) ListByWallet(ctx context.Context, companyID, walletID uuid.UUID) ([]*domain.CapitalMovement, error) {
	args := m.Called(ctx, companyID, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CapitalMovement), args.Error(1)
}

func (m *MockMovementRepository) SumByWallet(ctx context.Context, companyID, walletID uuid.UUID) (int64, error) {
	args := m.Called(ctx, companyID, walletID)
	return args.Get(0).(int64), args.Error(1)
}
