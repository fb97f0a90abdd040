package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/tandafin/lending-engine/internal/accrual"
	"github.com/tandafin/lending-engine/internal/config"
	"github.com/tandafin/lending-engine/internal/domain"
	"github.com/tandafin/lending-engine/internal/repository"
	customError "github.com/tandafin/lending-engine/pkg/errors"
)

// OriginationService validates a loan request, nets upfront deductions and
// rollover debt against the principal, and atomically debits the funding
// wallets, creates the loan and appends the audit movements.
type OriginationService struct {
	txRunner     repository.TxRunner
	WalletRepo   repository.WalletRepository
	LoanRepo     repository.LoanRepository
	MovementRepo repository.MovementRepository
	redis        *redis.Client
	config       *config.Config
}

func NewOriginationService(
	txRunner repository.TxRunner,
	walletRepo repository.WalletRepository,
	loanRepo repository.LoanRepository,
	movementRepo repository.MovementRepository,
	redis *redis.Client,
	config *config.Config,
) *OriginationService {
	return &OriginationService{
		txRunner:     txRunner,
		WalletRepo:   walletRepo,
		LoanRepo:     loanRepo,
		MovementRepo: movementRepo,
		redis:        redis,
		config:       config,
	}
}

// Disburse originates a loan. Everything from the rollover read to the last
// audit entry runs in one transaction: either the wallets are debited and
// the loan exists, or nothing changed at all.
func (s *OriginationService) Disburse(ctx context.Context, companyID uuid.UUID, request *domain.DisburseLoanRequest) (*domain.DisburseLoanResponse, error) {
	if request.Kind == domain.LoanKindDaily && request.Daily == nil {
		return nil, customError.WrapValidation("daily loan requires daily rules")
	}
	if request.Kind == domain.LoanKindPeriodic {
		if request.Periodic == nil {
			return nil, customError.WrapValidation("periodic loan requires periodic rules")
		}
		if request.Periodic.InterestRate.IsNegative() {
			return nil, customError.WrapValidation("interest rate must not be negative")
		}
	}

	split, err := normalizeSplit(request.Split)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	startDate := request.StartDate
	if startDate.IsZero() {
		startDate = now.Truncate(24 * time.Hour)
	}

	loanID := uuid.New()

	// 1. Resolve configured deductions and sum the upfront ones.
	var upfrontTotal int64
	deductions := make([]*domain.Deduction, 0, len(request.Deductions)+1)
	for _, input := range request.Deductions {
		amount := accrual.DeductionAmount(input.Mode, input.Value, request.Principal)
		if input.Timing == domain.DeductionTimingUpfront {
			upfrontTotal += amount
		}
		deductions = append(deductions, &domain.Deduction{
			ID:        uuid.New(),
			LoanID:    loanID,
			Name:      input.Name,
			Mode:      input.Mode,
			Value:     input.Value,
			Timing:    input.Timing,
			Amount:    amount,
			CreatedAt: now,
		})
	}

	// 2. Upfront interest, recorded as a synthetic deduction line so the
	// netting stays visible in the audit trail. Daily loans never support it.
	var rate decimal.Decimal
	if request.Periodic != nil {
		rate = request.Periodic.InterestRate
	}
	if interest := accrual.UpfrontInterest(request.Kind, request.UpfrontInterest, request.Principal, rate); interest > 0 {
		upfrontTotal += interest
		deductions = append(deductions, &domain.Deduction{
			ID:        uuid.New(),
			LoanID:    loanID,
			Name:      "upfront interest",
			Mode:      domain.DeductionModeFixed,
			Value:     decimal.NewFromInt(interest),
			Timing:    domain.DeductionTimingUpfront,
			Amount:    interest,
			CreatedAt: now,
		})
	}

	loan := s.buildLoan(loanID, companyID, request, startDate, now)

	var response *domain.DisburseLoanResponse
	err = s.txRunner.WithinTx(ctx, func(tx *sqlx.Tx) error {
		// 3. Absorb a rolled-over loan's remaining debt.
		var rolloverAmount int64
		if request.RolloverLoanID != nil {
			prior, err := s.LoanRepo.GetForUpdate(ctx, tx, companyID, *request.RolloverLoanID)
			if err != nil {
				if repository.IsNoRows(err) {
					return customError.WrapNotFound("loan", request.RolloverLoanID.String())
				}
				return customError.WrapDatabaseError(err)
			}
			if prior.IsTerminal() {
				return customError.WrapInvalidLoanState(prior.ID.String(), prior.Status)
			}

			rolloverAmount = prior.PendingBalance
			prior.PendingBalance = 0
			prior.Status = domain.LoanStatusRollover
			if err := s.LoanRepo.UpdateSummary(ctx, tx, prior); err != nil {
				return customError.WrapDatabaseError(err)
			}
		}

		// 4. Net disbursement is what actually leaves the wallets.
		netDisbursement := request.Principal - upfrontTotal - rolloverAmount
		if netDisbursement < 0 {
			return customError.WrapValidation(fmt.Sprintf(
				"upfront deductions and rollover (%d) exceed principal (%d)",
				upfrontTotal+rolloverAmount, request.Principal))
		}
		loan.NetDisbursement = netDisbursement

		// 5. The caller's split must cover the net disbursement. One minor
		// unit of tolerance absorbs rounding; anything further is rejected,
		// never adjusted.
		if absDiff(domain.SplitTotal(split), netDisbursement) > s.config.Business.SplitTolerance {
			return customError.WrapValidation(fmt.Sprintf(
				"split total %d does not match net disbursement %d",
				domain.SplitTotal(split), netDisbursement))
		}

		// 6. Create the loan record and its deduction lines first; the audit
		// movements written below reference the loan row. The transaction
		// still discards everything if a later step fails.
		if err := s.LoanRepo.Create(ctx, tx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := s.LoanRepo.CreateDeductions(ctx, tx, deductions); err != nil {
			return customError.WrapDatabaseError(err)
		}

		// 7. Debit every wallet in the split under its row lock.
		for _, line := range split {
			wallet, err := s.WalletRepo.GetForUpdate(ctx, tx, companyID, line.WalletID)
			if err != nil {
				if repository.IsNoRows(err) {
					return customError.WrapNotFound("wallet", line.WalletID.String())
				}
				return customError.WrapDatabaseError(err)
			}
			if !wallet.Active {
				return customError.WrapWalletInactive(wallet.Name)
			}
			if wallet.Balance < line.Amount {
				return customError.WrapInsufficientFunds(wallet.Name, line.Amount-wallet.Balance)
			}

			if err := s.WalletRepo.AdjustBalance(ctx, tx, companyID, line.WalletID, -line.Amount); err != nil {
				return customError.WrapDatabaseError(err)
			}

			movement := &domain.CapitalMovement{
				ID:          uuid.New(),
				CompanyID:   companyID,
				WalletID:    line.WalletID,
				LoanID:      &loanID,
				Amount:      -line.Amount,
				Category:    domain.MovementOriginationDebit,
				Description: fmt.Sprintf("disbursement of loan %s", loanID),
				CreatedAt:   now,
			}
			if err := s.MovementRepo.Create(ctx, tx, movement); err != nil {
				return customError.WrapDatabaseError(err)
			}
		}

		response = &domain.DisburseLoanResponse{Loan: loan, Deductions: deductions}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateReportCache(ctx, companyID)
	return response, nil
}

func (s *OriginationService) buildLoan(loanID, companyID uuid.UUID, request *domain.DisburseLoanRequest, startDate, now time.Time) *domain.Loan {
	loan := &domain.Loan{
		ID:         loanID,
		CompanyID:  companyID,
		BorrowerID: request.BorrowerID,
		Kind:       request.Kind,
		Principal:  request.Principal,
		StartDate:  startDate,
		RolloverOf: request.RolloverLoanID,
		Terms:      request.Terms,
		Status:     domain.LoanStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	switch request.Kind {
	case domain.LoanKindDaily:
		loan.InstallmentAmount = request.Daily.InstallmentAmount
		loan.TotalInstallments = request.Daily.TotalInstallments
		loan.PenaltyPerUnit = request.Daily.PenaltyPerUnit
	case domain.LoanKindPeriodic:
		loan.InterestRate = request.Periodic.InterestRate
		loan.Compounding = request.Periodic.Compounding
	}

	loan.PendingBalance = accrual.ScheduledTotal(loan.Kind, loan.Principal, loan.InstallmentAmount, loan.TotalInstallments)
	return loan
}

func (s *OriginationService) invalidateReportCache(ctx context.Context, companyID uuid.UUID) {
	key := collectionReportKey(companyID)
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		log.Printf("failed to invalidate %s: %v", key, err)
	}
}
