package mysql

import (
	"context"
	"errors"
	"testing"

	loanDomain "blolend/internal/domain/loan"
	reqDomain "blolend/internal/domain/request"
	"blolend/internal/domain/uow"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	db := newDB(t)
	u := NewGormUoW(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := u.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Wallets.Credit(ctx, "acct-a", 100); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	b, err := NewWalletRepository(db).BalanceOf(ctx, "acct-a")
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if b != 0 {
		t.Fatalf("balance = %d after rollback, want 0", b)
	}
}

func TestWithinTx_Commits(t *testing.T) {
	db := newDB(t)
	u := NewGormUoW(db)
	ctx := context.Background()

	err := u.WithinTx(ctx, func(r uow.Repos) error {
		return r.Wallets.Credit(ctx, "acct-a", 100)
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}

	b, err := NewWalletRepository(db).BalanceOf(ctx, "acct-a")
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if b != 100 {
		t.Fatalf("balance = %d, want 100", b)
	}
}

func TestWithinRequestTx_LoadsLockedRow(t *testing.T) {
	db := newDB(t)
	u := NewGormUoW(db)
	ctx := context.Background()
	fr := seedRequest(t, NewRequestRepository(db))

	err := u.WithinRequestTx(ctx, fr.ID, func(r uow.Repos, got *reqDomain.FundingRequest) error {
		if got.ID != fr.ID || got.Borrower != fr.Borrower {
			t.Fatalf("loaded = %+v", got)
		}
		got.Withdrawn = true
		return r.Requests.Save(ctx, got)
	})
	if err != nil {
		t.Fatalf("WithinRequestTx: %v", err)
	}

	got, err := NewRequestRepository(db).GetByID(ctx, fr.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Withdrawn {
		t.Fatalf("mutation did not commit")
	}
}

func TestWithinRequestTx_NotFound(t *testing.T) {
	u := NewGormUoW(newDB(t))
	err := u.WithinRequestTx(context.Background(), 99, func(uow.Repos, *reqDomain.FundingRequest) error {
		t.Fatalf("callback ran for a missing request")
		return nil
	})
	if !errors.Is(err, reqDomain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWithinLoanTx_NotFound(t *testing.T) {
	u := NewGormUoW(newDB(t))
	err := u.WithinLoanTx(context.Background(), 99, func(uow.Repos, *loanDomain.Loan) error {
		t.Fatalf("callback ran for a missing loan")
		return nil
	})
	if !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
