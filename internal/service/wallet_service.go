package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tandafin/lending-engine/internal/domain"
	"github.com/tandafin/lending-engine/internal/repository"
	customError "github.com/tandafin/lending-engine/pkg/errors"
)

// WalletService manages the per-tenant wallet ledger: creation,
// deactivation, manual capital injections/withdrawals and the movement
// history. Disbursement and collection move money through the orchestrators
// instead, never directly.
type WalletService struct {
	txRunner     repository.TxRunner
	WalletRepo   repository.WalletRepository
	MovementRepo repository.MovementRepository
}

func NewWalletService(
	txRunner repository.TxRunner,
	walletRepo repository.WalletRepository,
	movementRepo repository.MovementRepository,
) *WalletService {
	return &WalletService{
		txRunner:     txRunner,
		WalletRepo:   walletRepo,
		MovementRepo: movementRepo,
	}
}

// CreateWallet opens a named balance for a tenant. The opening balance is
// the ledger baseline; it is not recorded as a movement.
func (s *WalletService) CreateWallet(ctx context.Context, companyID uuid.UUID, request *domain.CreateWalletRequest) (*domain.Wallet, error) {
	now := time.Now()
	wallet := &domain.Wallet{
		ID:             uuid.New(),
		CompanyID:      companyID,
		Name:           request.Name,
		Kind:           request.Kind,
		OpeningBalance: request.OpeningBalance,
		Balance:        request.OpeningBalance,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.WalletRepo.Create(ctx, wallet); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return wallet, nil
}

// ListWallets returns all wallets of a tenant with current balances.
func (s *WalletService) ListWallets(ctx context.Context, companyID uuid.UUID) ([]*domain.Wallet, error) {
	wallets, err := s.WalletRepo.List(ctx, companyID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return wallets, nil
}

// Deactivate flags a wallet so no further movement can touch it. Wallets
// with history are never deleted.
func (s *WalletService) Deactivate(ctx context.Context, companyID, walletID uuid.UUID) error {
	if err := s.WalletRepo.Deactivate(ctx, companyID, walletID); err != nil {
		if repository.IsNoRows(err) {
			return customError.WrapNotFound("wallet", walletID.String())
		}
		return customError.WrapDatabaseError(err)
	}
	return nil
}

// ApplyManualMovement injects or withdraws capital outside the loan flows.
// A negative amount withdraws and must be covered by the current balance.
func (s *WalletService) ApplyManualMovement(ctx context.Context, companyID, walletID uuid.UUID, request *domain.ManualMovementRequest) (*domain.CapitalMovement, error) {
	var movement *domain.CapitalMovement
	err := s.txRunner.WithinTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.WalletRepo.GetForUpdate(ctx, tx, companyID, walletID)
		if err != nil {
			if repository.IsNoRows(err) {
				return customError.WrapNotFound("wallet", walletID.String())
			}
			return customError.WrapDatabaseError(err)
		}
		if !wallet.Active {
			return customError.WrapWalletInactive(wallet.Name)
		}
		if request.Amount < 0 && wallet.Balance+request.Amount < 0 {
			return customError.WrapInsufficientFunds(wallet.Name, -(wallet.Balance + request.Amount))
		}

		if err := s.WalletRepo.AdjustBalance(ctx, tx, companyID, walletID, request.Amount); err != nil {
			return customError.WrapDatabaseError(err)
		}

		category := domain.MovementManualInjection
		if request.Amount < 0 {
			category = domain.MovementManualWithdrawal
		}
		movement = &domain.CapitalMovement{
			ID:          uuid.New(),
			CompanyID:   companyID,
			WalletID:    walletID,
			Amount:      request.Amount,
			Category:    category,
			Description: request.Description,
			CreatedAt:   time.Now(),
		}
		if err := s.MovementRepo.Create(ctx, tx, movement); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// Movements returns a wallet with its full audit history, newest first.
func (s *WalletService) Movements(ctx context.Context, companyID, walletID uuid.UUID) (*domain.WalletMovementsResponse, error) {
	wallet, err := s.WalletRepo.GetByID(ctx, companyID, walletID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, customError.WrapNotFound("wallet", walletID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	movements, err := s.MovementRepo.ListByWallet(ctx, companyID, walletID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	total, err := s.MovementRepo.SumByWallet(ctx, companyID, walletID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.WalletMovementsResponse{
		Wallet:        wallet,
		Movements:     movements,
		MovementTotal: total,
	}, nil
}
