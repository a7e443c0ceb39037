package uow

import (
	"context"

	"blolend/internal/domain/credit"
	"blolend/internal/domain/event"
	"blolend/internal/domain/loan"
	"blolend/internal/domain/reputation"
	"blolend/internal/domain/request"
	"blolend/internal/domain/wallet"
)

type Repos struct {
	Requests   request.Repository
	Loans      loan.Repository
	Credits    credit.Repository
	Wallets    wallet.Repository
	Reputation reputation.Repository
	Events     event.Repository
}

// UnitOfWork scopes every state-mutating protocol operation to one database
// transaction: all mutations and ledger transfers commit together or not at
// all.
type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the funding request first, then pass it in
	WithinRequestTx(ctx context.Context, requestID uint64, fn func(r Repos, fr *request.FundingRequest) error) error
	// convenience: lock the loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
