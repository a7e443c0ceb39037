package mysql

import (
	"context"
	"errors"

	walletDomain "blolend/internal/domain/wallet"

	"gorm.io/gorm"
)

type WalletRepository struct{ db *gorm.DB }

func NewWalletRepository(db *gorm.DB) *WalletRepository { return &WalletRepository{db: db} }

func (r *WalletRepository) Debit(ctx context.Context, account string, amount uint64) error {
	acc, err := lockAccount[walletDomain.Account](ctx, r.db, account)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return walletDomain.ErrInsufficientFunds
		}
		return err
	}
	if acc.Balance < amount {
		return walletDomain.ErrInsufficientFunds
	}
	acc.Balance -= amount
	return r.db.WithContext(ctx).Save(acc).Error
}

func (r *WalletRepository) Credit(ctx context.Context, account string, amount uint64) error {
	acc, err := lockAccount[walletDomain.Account](ctx, r.db, account)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).
				Create(&walletDomain.Account{AccountID: account, Balance: amount}).Error
		}
		return err
	}
	acc.Balance += amount
	return r.db.WithContext(ctx).Save(acc).Error
}

func (r *WalletRepository) BalanceOf(ctx context.Context, account string) (uint64, error) {
	var acc walletDomain.Account
	res := r.db.WithContext(ctx).First(&acc, "account_id = ?", account)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return acc.Balance, res.Error
}
