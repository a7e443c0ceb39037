package wallet

import "context"

// Repository is the base-currency ledger. Debit fails with
// ErrInsufficientFunds when the account cannot cover the amount; Credit
// creates the account on first use.
type Repository interface {
	Debit(ctx context.Context, account string, amount uint64) error
	Credit(ctx context.Context, account string, amount uint64) error
	BalanceOf(ctx context.Context, account string) (uint64, error)
}
