package credit

import (
	"context"
	"math"

	domain "blolend/internal/domain/credit"
	"blolend/internal/domain/request"
	"blolend/internal/domain/uow"
	"blolend/internal/domain/wallet"
)

// ExchangeRate is the fixed number of credit units minted per base currency
// unit. Only the exchange path knows it; the core never inspects it.
const ExchangeRate = 1000

type ExchangeDTO struct {
	AccountID string `json:"account_id"`
	Deposited uint64 `json:"deposited"`
	Minted    uint64 `json:"minted"`
	Balance   uint64 `json:"balance"`
}

// Usecase converts deposited base currency into internal credit at the fixed
// rate.
type Usecase struct {
	credits domain.Repository
	uow     uow.UnitOfWork
}

func NewUsecase(credits domain.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{credits: credits, uow: tx}
}

// Exchange debits amount from the account's wallet and mints amount times
// ExchangeRate credit units, atomically.
func (u *Usecase) Exchange(ctx context.Context, account string, amount uint64) (*ExchangeDTO, error) {
	if amount == 0 || amount > math.MaxUint64/ExchangeRate {
		return nil, request.ErrInvalidAmount
	}
	minted := amount * ExchangeRate

	var dto *ExchangeDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Wallets.Debit(ctx, account, amount); err != nil {
			return err
		}
		if err := r.Wallets.Credit(ctx, wallet.CustodyAccount, amount); err != nil {
			return err
		}
		if err := r.Credits.Credit(ctx, account, minted); err != nil {
			return err
		}
		balance, err := r.Credits.BalanceOf(ctx, account)
		if err != nil {
			return err
		}
		dto = &ExchangeDTO{AccountID: account, Deposited: amount, Minted: minted, Balance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (u *Usecase) Balance(ctx context.Context, account string) (uint64, error) {
	return u.credits.BalanceOf(ctx, account)
}
