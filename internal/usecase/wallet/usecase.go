package wallet

import (
	"context"

	"blolend/internal/domain/request"
	"blolend/internal/domain/uow"
	domain "blolend/internal/domain/wallet"
)

type DepositDTO struct {
	AccountID string `json:"account_id"`
	Deposited uint64 `json:"deposited"`
	Balance   uint64 `json:"balance"`
}

// Usecase tops up and reads base-currency wallets. Deposits stand in for the
// external settlement rail that moves real currency onto the platform.
type Usecase struct {
	wallets domain.Repository
	uow     uow.UnitOfWork
}

func NewUsecase(wallets domain.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{wallets: wallets, uow: tx}
}

// Deposit credits the wallet inside one transaction so the balance row stays
// locked between the read and the write.
func (u *Usecase) Deposit(ctx context.Context, account string, amount uint64) (*DepositDTO, error) {
	if amount == 0 {
		return nil, request.ErrInvalidAmount
	}
	var dto *DepositDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Wallets.Credit(ctx, account, amount); err != nil {
			return err
		}
		balance, err := r.Wallets.BalanceOf(ctx, account)
		if err != nil {
			return err
		}
		dto = &DepositDTO{AccountID: account, Deposited: amount, Balance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (u *Usecase) Balance(ctx context.Context, account string) (uint64, error) {
	return u.wallets.BalanceOf(ctx, account)
}
