package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tandafin/lending-engine/internal/domain"
	customError "github.com/tandafin/lending-engine/pkg/errors"
)

func newCollectionService(walletRepo *MockWalletRepository, loanRepo *MockLoanRepository, repaymentRepo *MockRepaymentRepository, movementRepo *MockMovementRepository) *CollectionService {
	return NewCollectionService(&fakeTxRunner{}, walletRepo, loanRepo, repaymentRepo, movementRepo, testRedis(), testConfig())
}

func TestCollect(t *testing.T) {
	companyID := uuid.New()
	loanID := uuid.New()
	walletID := uuid.New()

	activeWallet := &domain.Wallet{ID: walletID, CompanyID: companyID, Name: "Cash", Active: true, Balance: 1000}

	dailyLoan := func() *domain.Loan {
		return &domain.Loan{
			ID:                loanID,
			CompanyID:         companyID,
			BorrowerID:        uuid.New(),
			Kind:              domain.LoanKindDaily,
			Status:            domain.LoanStatusActive,
			InstallmentAmount: 100,
			TotalInstallments: 100,
			LastPaidIndex:     5,
			Carry:             40,
			AmountPaid:        540,
			PendingBalance:    9460,
		}
	}

	tests := []struct {
		name           string
		request        *domain.CollectRequest
		setupMocks     func(*MockWalletRepository, *MockLoanRepository, *MockRepaymentRepository, *MockMovementRepository)
		expectedCode   string
		validateResult func(*testing.T, *domain.CollectResponse)
	}{
		{
			name: "Success - carry-over advances one installment with remainder",
			request: &domain.CollectRequest{
				Amount: 70,
				Split:  []domain.SplitLine{{WalletID: walletID, Amount: 70}},
			},
			setupMocks: func(walletRepo *MockWalletRepository, loanRepo *MockLoanRepository, repaymentRepo *MockRepaymentRepository, movementRepo *MockMovementRepository) {
				loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, loanID).Return(dailyLoan(), nil)
				loanRepo.On("UpdateSummary", mock.Anything, mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
					// 40 carried + 70 collected = 110: one full installment, 10 left over
					return loan.LastPaidIndex == 6 &&
						loan.Carry == 10 &&
						loan.AmountPaid == 610 &&
						loan.PendingBalance == 9390 &&
						loan.Status == domain.LoanStatusActive
				})).Return(nil)
				walletRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, walletID).Return(activeWallet, nil)
				walletRepo.On("AdjustBalance", mock.Anything, mock.Anything, companyID, walletID, int64(70)).Return(nil)
				movementRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(m *domain.CapitalMovement) bool {
					return m.Amount == 70 && m.Category == domain.MovementCollectionCredit
				})).Return(nil)
				repaymentRepo.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(splits []*domain.RepaymentSplit) bool {
					return len(splits) == 1 && splits[0].Amount == 70
				})).Return(nil)
			},
			validateResult: func(t *testing.T, result *domain.CollectResponse) {
				assert.Equal(t, 6, result.Repayment.FromIndex)
				assert.Equal(t, 6, result.Repayment.ToIndex)
				assert.Equal(t, int64(10), result.Repayment.CarryRemainder)
				assert.True(t, result.Repayment.Partial)
			},
		},
		{
			name: "Success - final payment closes the loan",
			request: &domain.CollectRequest{
				Amount: 50,
				Split:  []domain.SplitLine{{WalletID: walletID, Amount: 50}},
			},
			setupMocks: func(walletRepo *MockWalletRepository, loanRepo *MockLoanRepository, repaymentRepo *MockRepaymentRepository, movementRepo *MockMovementRepository) {
				loan := dailyLoan()
				loan.LastPaidIndex = 99
				loan.Carry = 50
				loan.AmountPaid = 9950
				loan.PendingBalance = 50
				loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, loanID).Return(loan, nil)
				loanRepo.On("UpdateSummary", mock.Anything, mock.Anything, mock.MatchedBy(func(updated *domain.Loan) bool {
					return updated.Status == domain.LoanStatusClosed &&
						updated.PendingBalance == 0 &&
						updated.LastPaidIndex == 100
				})).Return(nil)
				walletRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, walletID).Return(activeWallet, nil)
				walletRepo.On("AdjustBalance", mock.Anything, mock.Anything, companyID, walletID, int64(50)).Return(nil)
				movementRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				repaymentRepo.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
			},
			validateResult: func(t *testing.T, result *domain.CollectResponse) {
				assert.Equal(t, domain.LoanStatusClosed, result.Loan.Status)
				assert.False(t, result.Repayment.Partial)
			},
		},
		{
			name: "Failure - closed loan rejects further collection",
			request: &domain.CollectRequest{
				Amount: 100,
				Split:  []domain.SplitLine{{WalletID: walletID, Amount: 100}},
			},
			setupMocks: func(walletRepo *MockWalletRepository, loanRepo *MockLoanRepository, repaymentRepo *MockRepaymentRepository, movementRepo *MockMovementRepository) {
				loan := dailyLoan()
				loan.Status = domain.LoanStatusClosed
				loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, loanID).Return(loan, nil)
			},
			expectedCode: customError.ErrCodeInvalidLoanState,
		},
		{
			name: "Failure - split total must equal amount exactly",
			request: &domain.CollectRequest{
				Amount: 100,
				Split:  []domain.SplitLine{{WalletID: walletID, Amount: 99}},
			},
			setupMocks:   func(*MockWalletRepository, *MockLoanRepository, *MockRepaymentRepository, *MockMovementRepository) {},
			expectedCode: customError.ErrCodeValidation,
		},
		{
			name: "Failure - unknown loan",
			request: &domain.CollectRequest{
				Amount: 100,
				Split:  []domain.SplitLine{{WalletID: walletID, Amount: 100}},
			},
			setupMocks: func(walletRepo *MockWalletRepository, loanRepo *MockLoanRepository, repaymentRepo *MockRepaymentRepository, movementRepo *MockMovementRepository) {
				loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, loanID).Return(nil, sql.ErrNoRows)
			},
			expectedCode: customError.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walletRepo := new(MockWalletRepository)
			loanRepo := new(MockLoanRepository)
			repaymentRepo := new(MockRepaymentRepository)
			movementRepo := new(MockMovementRepository)
			tt.setupMocks(walletRepo, loanRepo, repaymentRepo, movementRepo)

			service := newCollectionService(walletRepo, loanRepo, repaymentRepo, movementRepo)
			result, err := service.Collect(context.Background(), companyID, loanID, tt.request)

			if tt.expectedCode != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedCode, customError.CodeOf(err))
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
				if tt.validateResult != nil {
					tt.validateResult(t, result)
				}
			}

			walletRepo.AssertExpectations(t)
			loanRepo.AssertExpectations(t)
			repaymentRepo.AssertExpectations(t)
			movementRepo.AssertExpectations(t)
		})
	}
}

func TestCollectKeepsLoanOpenForPenaltyDebt(t *testing.T) {
	companyID := uuid.New()
	loanID := uuid.New()
	walletID := uuid.New()

	// 10x100 schedule with one installment left and a 50 penalty on top
	loan := &domain.Loan{
		ID:                loanID,
		CompanyID:         companyID,
		BorrowerID:        uuid.New(),
		Kind:              domain.LoanKindDaily,
		Status:            domain.LoanStatusActive,
		InstallmentAmount: 100,
		TotalInstallments: 10,
		LastPaidIndex:     9,
		Carry:             0,
		AmountPaid:        900,
		PendingBalance:    150,
	}

	walletRepo := new(MockWalletRepository)
	loanRepo := new(MockLoanRepository)
	repaymentRepo := new(MockRepaymentRepository)
	movementRepo := new(MockMovementRepository)

	loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, loanID).Return(loan, nil)
	loanRepo.On("UpdateSummary", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	walletRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, walletID).
		Return(&domain.Wallet{ID: walletID, CompanyID: companyID, Name: "Cash", Active: true}, nil)
	walletRepo.On("AdjustBalance", mock.Anything, mock.Anything, companyID, walletID, mock.Anything).Return(nil)
	movementRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repaymentRepo.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	service := newCollectionService(walletRepo, loanRepo, repaymentRepo, movementRepo)

	// completing the schedule does not close the loan while the penalty is
	// still outstanding
	result, err := service.Collect(context.Background(), companyID, loanID, &domain.CollectRequest{
		Amount: 100,
		Split:  []domain.SplitLine{{WalletID: walletID, Amount: 100}},
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, result.Loan.Status)
	assert.Equal(t, 10, result.Loan.LastPaidIndex)
	assert.Equal(t, int64(50), result.Loan.PendingBalance)

	// collecting the penalty itself is still possible and closes the loan
	result, err = service.Collect(context.Background(), companyID, loanID, &domain.CollectRequest{
		Amount: 50,
		Split:  []domain.SplitLine{{WalletID: walletID, Amount: 50}},
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusClosed, result.Loan.Status)
	assert.Equal(t, int64(0), result.Loan.PendingBalance)
	assert.Equal(t, int64(1050), result.Loan.AmountPaid)
}

func TestCollectPeriodicOverpaymentCloses(t *testing.T) {
	companyID := uuid.New()
	loanID := uuid.New()
	walletID := uuid.New()

	loan := &domain.Loan{
		ID:             loanID,
		CompanyID:      companyID,
		BorrowerID:     uuid.New(),
		Kind:           domain.LoanKindPeriodic,
		Status:         domain.LoanStatusActive,
		AmountPaid:     9000,
		PendingBalance: 80,
	}

	walletRepo := new(MockWalletRepository)
	loanRepo := new(MockLoanRepository)
	repaymentRepo := new(MockRepaymentRepository)
	movementRepo := new(MockMovementRepository)

	loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, loanID).Return(loan, nil)
	loanRepo.On("UpdateSummary", mock.Anything, mock.Anything, mock.MatchedBy(func(updated *domain.Loan) bool {
		// pending never goes negative, it clamps at zero and closes
		return updated.PendingBalance == 0 && updated.Status == domain.LoanStatusClosed
	})).Return(nil)
	walletRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, walletID).
		Return(&domain.Wallet{ID: walletID, CompanyID: companyID, Name: "Cash", Active: true}, nil)
	walletRepo.On("AdjustBalance", mock.Anything, mock.Anything, companyID, walletID, int64(100)).Return(nil)
	movementRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repaymentRepo.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	service := newCollectionService(walletRepo, loanRepo, repaymentRepo, movementRepo)
	result, err := service.Collect(context.Background(), companyID, loanID, &domain.CollectRequest{
		Amount: 100,
		Split:  []domain.SplitLine{{WalletID: walletID, Amount: 100}},
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusClosed, result.Loan.Status)
	loanRepo.AssertExpectations(t)
}

func TestApplyPenalty(t *testing.T) {
	companyID := uuid.New()
	loanID := uuid.New()

	t.Run("Success - pending balance grows, no wallet touched", func(t *testing.T) {
		walletRepo := new(MockWalletRepository)
		loanRepo := new(MockLoanRepository)
		repaymentRepo := new(MockRepaymentRepository)
		movementRepo := new(MockMovementRepository)

		loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, loanID).
			Return(&domain.Loan{ID: loanID, CompanyID: companyID, Status: domain.LoanStatusActive, PendingBalance: 100}, nil)
		loanRepo.On("UpdateSummary", mock.Anything, mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
			return loan.PendingBalance == 150
		})).Return(nil)
		loanRepo.On("CreatePenalty", mock.Anything, mock.Anything, mock.MatchedBy(func(p *domain.LoanPenalty) bool {
			return p.Amount == 50 && p.Reason == "3 missed days"
		})).Return(nil)

		service := newCollectionService(walletRepo, loanRepo, repaymentRepo, movementRepo)
		penalty, err := service.ApplyPenalty(context.Background(), companyID, loanID, &domain.PenaltyRequest{
			Amount: 50,
			Reason: "3 missed days",
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(50), penalty.Amount)
		walletRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		loanRepo.AssertExpectations(t)
	})

	t.Run("Failure - terminal loan", func(t *testing.T) {
		loanRepo := new(MockLoanRepository)
		loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, loanID).
			Return(&domain.Loan{ID: loanID, CompanyID: companyID, Status: domain.LoanStatusBadDebt}, nil)

		service := newCollectionService(new(MockWalletRepository), loanRepo, new(MockRepaymentRepository), new(MockMovementRepository))
		_, err := service.ApplyPenalty(context.Background(), companyID, loanID, &domain.PenaltyRequest{Amount: 50, Reason: "late"})

		assert.Error(t, err)
		assert.Equal(t, customError.ErrCodeInvalidLoanState, customError.CodeOf(err))
	})
}

func TestWriteOff(t *testing.T) {
	companyID := uuid.New()
	loanID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		loanRepo := new(MockLoanRepository)
		loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, loanID).
			Return(&domain.Loan{ID: loanID, CompanyID: companyID, Status: domain.LoanStatusActive, PendingBalance: 4000}, nil)
		loanRepo.On("MarkBadDebt", mock.Anything, mock.Anything, companyID, loanID, "borrower unreachable").Return(nil)

		service := newCollectionService(new(MockWalletRepository), loanRepo, new(MockRepaymentRepository), new(MockMovementRepository))
		err := service.WriteOff(context.Background(), companyID, loanID, "borrower unreachable")

		assert.NoError(t, err)
		loanRepo.AssertExpectations(t)
	})

	t.Run("Failure - already written off", func(t *testing.T) {
		loanRepo := new(MockLoanRepository)
		loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, companyID, loanID).
			Return(&domain.Loan{ID: loanID, CompanyID: companyID, Status: domain.LoanStatusBadDebt}, nil)

		service := newCollectionService(new(MockWalletRepository), loanRepo, new(MockRepaymentRepository), new(MockMovementRepository))
		err := service.WriteOff(context.Background(), companyID, loanID, "again")

		assert.Error(t, err)
		assert.Equal(t, customError.ErrCodeInvalidLoanState, customError.CodeOf(err))
		loanRepo.AssertNotCalled(t, "MarkBadDebt", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
