package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tandafin/lending-engine/internal/domain"
)

type walletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (id, company_id, name, kind, opening_balance, balance, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		wallet.ID,
		wallet.CompanyID,
		wallet.Name,
		wallet.Kind,
		wallet.OpeningBalance,
		wallet.Balance,
		wallet.Active,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)

	return err
}

func (r *walletRepository) GetByID(ctx context.Context, companyID, walletID uuid.UUID) (*domain.Wallet, error) {
	query := `
		SELECT id, company_id, name, kind, opening_balance, balance, active, created_at, updated_at
		FROM wallets
		WHERE company_id = $1 AND id = $2
	`

	var wallet domain.Wallet
	err := r.db.GetContext(ctx, &wallet, query, companyID, walletID)
	if err != nil {
		return nil, err
	}

	return &wallet, nil
}

func (r *walletRepository) List(ctx context.Context, companyID uuid.UUID) ([]*domain.Wallet, error) {
	query := `
		SELECT id, company_id, name, kind, opening_balance, balance, active, created_at, updated_at
		FROM wallets
		WHERE company_id = $1
		ORDER BY created_at
	`

	var wallets []*domain.Wallet
	err := r.db.SelectContext(ctx, &wallets, query, companyID)
	if err != nil {
		return nil, err
	}

	return wallets, nil
}

func (r *walletRepository) Deactivate(ctx context.Context, companyID, walletID uuid.UUID) error {
	query := `
		UPDATE wallets
		SET active = false, updated_at = $3
		WHERE company_id = $1 AND id = $2
	`

	result, err := r.db.ExecContext(ctx, query, companyID, walletID, time.Now())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errNoRows
	}

	return nil
}

func (r *walletRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, companyID, walletID uuid.UUID) (*domain.Wallet, error) {
	query := `
		SELECT id, company_id, name, kind, opening_balance, balance, active, created_at, updated_at
		FROM wallets
		WHERE company_id = $1 AND id = $2
		FOR UPDATE
	`

	var wallet domain.Wallet
	err := tx.GetContext(ctx, &wallet, query, companyID, walletID)
	if err != nil {
		return nil, err
	}

	return &wallet, nil
}

func (r *walletRepository) AdjustBalance(ctx context.Context, tx *sqlx.Tx, companyID, walletID uuid.UUID, delta int64) error {
	query := `
		UPDATE wallets
		SET balance = balance + $3, updated_at = $4
		WHERE company_id = $1 AND id = $2
	`

	result, err := tx.ExecContext(ctx, query, companyID, walletID, delta, time.Now())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errNoRows
	}

	return nil
}
