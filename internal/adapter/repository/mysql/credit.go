package mysql

import (
	"context"
	"errors"

	creditDomain "blolend/internal/domain/credit"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreditRepository struct{ db *gorm.DB }

func NewCreditRepository(db *gorm.DB) *CreditRepository { return &CreditRepository{db: db} }

func (r *CreditRepository) Debit(ctx context.Context, account string, amount uint64) error {
	acc, err := lockAccount[creditDomain.Account](ctx, r.db, account)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return creditDomain.ErrInsufficientCredit
		}
		return err
	}
	if acc.Balance < amount {
		return creditDomain.ErrInsufficientCredit
	}
	acc.Balance -= amount
	return r.db.WithContext(ctx).Save(acc).Error
}

func (r *CreditRepository) Credit(ctx context.Context, account string, amount uint64) error {
	acc, err := lockAccount[creditDomain.Account](ctx, r.db, account)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).
				Create(&creditDomain.Account{AccountID: account, Balance: amount}).Error
		}
		return err
	}
	acc.Balance += amount
	return r.db.WithContext(ctx).Save(acc).Error
}

func (r *CreditRepository) BalanceOf(ctx context.Context, account string) (uint64, error) {
	var acc creditDomain.Account
	res := r.db.WithContext(ctx).First(&acc, "account_id = ?", account)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return acc.Balance, res.Error
}

// lockAccount loads a balance row, locked for update on mysql. Shared by the
// credit and wallet ledgers, which persist the same account shape.
func lockAccount[T any](ctx context.Context, db *gorm.DB, account string) (*T, error) {
	tx := db.WithContext(ctx)
	if db.Dialector.Name() == "mysql" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var acc T
	if err := tx.First(&acc, "account_id = ?", account).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}
