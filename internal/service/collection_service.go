package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/tandafin/lending-engine/internal/accrual"
	"github.com/tandafin/lending-engine/internal/config"
	"github.com/tandafin/lending-engine/internal/domain"
	"github.com/tandafin/lending-engine/internal/repository"
	customError "github.com/tandafin/lending-engine/pkg/errors"
)

// CollectionService applies repayments to active loans, credits the
// receiving wallets and records the immutable repayment transaction, all as
// one atomic unit. It also owns the manual penalty and write-off paths.
type CollectionService struct {
	txRunner      repository.TxRunner
	WalletRepo    repository.WalletRepository
	LoanRepo      repository.LoanRepository
	RepaymentRepo repository.RepaymentRepository
	MovementRepo  repository.MovementRepository
	redis         *redis.Client
	config        *config.Config
}

func NewCollectionService(
	txRunner repository.TxRunner,
	walletRepo repository.WalletRepository,
	loanRepo repository.LoanRepository,
	repaymentRepo repository.RepaymentRepository,
	movementRepo repository.MovementRepository,
	redis *redis.Client,
	config *config.Config,
) *CollectionService {
	return &CollectionService{
		txRunner:      txRunner,
		WalletRepo:    walletRepo,
		LoanRepo:      loanRepo,
		RepaymentRepo: repaymentRepo,
		MovementRepo:  movementRepo,
		redis:         redis,
		config:        config,
	}
}

// Collect applies one repayment to a loan. The caller controls both the
// total and the split, so the split must match exactly; there is no
// rounding tolerance on this path.
func (s *CollectionService) Collect(ctx context.Context, companyID, loanID uuid.UUID, request *domain.CollectRequest) (*domain.CollectResponse, error) {
	split, err := normalizeSplit(request.Split)
	if err != nil {
		return nil, err
	}
	if total := domain.SplitTotal(split); total != request.Amount {
		return nil, customError.WrapValidation(fmt.Sprintf(
			"split total %d does not match repayment amount %d", total, request.Amount))
	}

	now := time.Now()

	var response *domain.CollectResponse
	err = s.txRunner.WithinTx(ctx, func(tx *sqlx.Tx) error {
		loan, err := s.LoanRepo.GetForUpdate(ctx, tx, companyID, loanID)
		if err != nil {
			if repository.IsNoRows(err) {
				return customError.WrapNotFound("loan", loanID.String())
			}
			return customError.WrapDatabaseError(err)
		}
		if loan.IsTerminal() {
			return customError.WrapInvalidLoanState(loan.ID.String(), loan.Status)
		}

		repayment := &domain.Repayment{
			ID:          uuid.New(),
			CompanyID:   companyID,
			LoanID:      loan.ID,
			BorrowerID:  loan.BorrowerID,
			CollectedBy: request.CollectedBy,
			Amount:      request.Amount,
			CreatedAt:   now,
		}

		// Advance the loan's repayment state. Daily loans move the
		// installment index and carry; periodic loans reduce the pending
		// balance directly.
		if loan.Kind == domain.LoanKindDaily {
			unitsCovered, newCarry := accrual.ApplyToSchedule(loan.InstallmentAmount, loan.Carry, request.Amount)
			repayment.FromIndex = loan.LastPaidIndex + 1
			repayment.ToIndex = loan.LastPaidIndex + unitsCovered
			repayment.CarryRemainder = newCarry
			repayment.Partial = newCarry > 0

			loan.LastPaidIndex += unitsCovered
			loan.Carry = newCarry
		}

		// Closing is owned by the pending balance alone. A completed
		// schedule with penalty debt still on it stays active until that
		// debt is collected too.
		loan.AmountPaid += request.Amount
		loan.PendingBalance -= request.Amount
		if loan.PendingBalance <= 0 {
			loan.PendingBalance = 0
			loan.Status = domain.LoanStatusClosed
		}

		if err := s.LoanRepo.UpdateSummary(ctx, tx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}

		// Credit every receiving wallet and append its audit entry.
		splits := make([]*domain.RepaymentSplit, 0, len(split))
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

			if err := s.WalletRepo.AdjustBalance(ctx, tx, companyID, line.WalletID, line.Amount); err != nil {
				return customError.WrapDatabaseError(err)
			}

			movement := &domain.CapitalMovement{
				ID:          uuid.New(),
				CompanyID:   companyID,
				WalletID:    line.WalletID,
				LoanID:      &loan.ID,
				Amount:      line.Amount,
				Category:    domain.MovementCollectionCredit,
				Description: fmt.Sprintf("repayment on loan %s", loan.ID),
				CreatedAt:   now,
			}
			if err := s.MovementRepo.Create(ctx, tx, movement); err != nil {
				return customError.WrapDatabaseError(err)
			}

			splits = append(splits, &domain.RepaymentSplit{
				ID:          uuid.New(),
				RepaymentID: repayment.ID,
				WalletID:    line.WalletID,
				Amount:      line.Amount,
			})
		}

		if err := s.RepaymentRepo.Create(ctx, tx, repayment, splits); err != nil {
			return customError.WrapDatabaseError(err)
		}

		response = &domain.CollectResponse{Repayment: repayment, Loan: loan}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCaches(ctx, companyID, loanID)
	return response, nil
}

// ApplyPenalty adds a manual penalty to an active loan's pending balance.
// No wallet is touched; the structured penalty record is the audit entry.
func (s *CollectionService) ApplyPenalty(ctx context.Context, companyID, loanID uuid.UUID, request *domain.PenaltyRequest) (*domain.LoanPenalty, error) {
	var penalty *domain.LoanPenalty
	err := s.txRunner.WithinTx(ctx, func(tx *sqlx.Tx) error {
		loan, err := s.LoanRepo.GetForUpdate(ctx, tx, companyID, loanID)
		if err != nil {
			if repository.IsNoRows(err) {
				return customError.WrapNotFound("loan", loanID.String())
			}
			return customError.WrapDatabaseError(err)
		}
		if loan.IsTerminal() {
			return customError.WrapInvalidLoanState(loan.ID.String(), loan.Status)
		}

		loan.PendingBalance += request.Amount
		if err := s.LoanRepo.UpdateSummary(ctx, tx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}

		penalty = &domain.LoanPenalty{
			ID:        uuid.New(),
			CompanyID: companyID,
			LoanID:    loan.ID,
			Amount:    request.Amount,
			Reason:    request.Reason,
			CreatedAt: time.Now(),
		}
		if err := s.LoanRepo.CreatePenalty(ctx, tx, penalty); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCaches(ctx, companyID, loanID)
	return penalty, nil
}

// WriteOff manually transitions an active loan to bad debt. The pending
// balance is kept as the written-off amount.
func (s *CollectionService) WriteOff(ctx context.Context, companyID, loanID uuid.UUID, reason string) error {
	err := s.txRunner.WithinTx(ctx, func(tx *sqlx.Tx) error {
		loan, err := s.LoanRepo.GetForUpdate(ctx, tx, companyID, loanID)
		if err != nil {
			if repository.IsNoRows(err) {
				return customError.WrapNotFound("loan", loanID.String())
			}
			return customError.WrapDatabaseError(err)
		}
		if loan.IsTerminal() {
			return customError.WrapInvalidLoanState(loan.ID.String(), loan.Status)
		}

		if err := s.LoanRepo.MarkBadDebt(ctx, tx, companyID, loanID, reason); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateCaches(ctx, companyID, loanID)
	return nil
}

// ListRepayments returns the collection history of a loan, newest first.
func (s *CollectionService) ListRepayments(ctx context.Context, companyID, loanID uuid.UUID) ([]*domain.Repayment, error) {
	if _, err := s.LoanRepo.GetByID(ctx, companyID, loanID); err != nil {
		if repository.IsNoRows(err) {
			return nil, customError.WrapNotFound("loan", loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	repayments, err := s.RepaymentRepo.ListByLoan(ctx, companyID, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return repayments, nil
}

func (s *CollectionService) invalidateCaches(ctx context.Context, companyID, loanID uuid.UUID) {
	keys := []string{collectionReportKey(companyID), loanStatusKey(companyID, loanID)}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("failed to invalidate cache keys %v: %v", keys, err)
	}
}
