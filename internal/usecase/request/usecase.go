package request

import (
	"context"
	"time"

	"blolend/internal/domain/credit"
	"blolend/internal/domain/event"
	domain "blolend/internal/domain/request"
	"blolend/internal/domain/uow"
	"blolend/internal/domain/wallet"
	"blolend/pkg/id"
)

// Usecase is the funding-request registry: it owns the request lifecycle from
// creation through borrower withdrawal of the raised principal.
type Usecase struct {
	requests domain.Repository
	uow      uow.UnitOfWork
	now      func() time.Time
}

func NewUsecase(requests domain.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{
		requests: requests,
		uow:      tx,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create escrows the borrower's collateral and registers a new funding
// request in one transaction. Fails without any mutation if the borrower's
// credit balance cannot cover the collateral.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*RequestDTO, error) {
	if in.Borrower == credit.CustodyAccount || in.Borrower == wallet.CustodyAccount {
		return nil, domain.ErrReservedAccount
	}
	if in.Amount == 0 || in.Amount > domain.MaxFundingAmount {
		return nil, domain.ErrInvalidAmount
	}
	if in.Collateral == 0 || in.Collateral > domain.MaxFundingAmount {
		return nil, domain.ErrInvalidAmount
	}
	if in.InterestRate > domain.MaxInterestRate {
		return nil, domain.ErrInvalidRate
	}
	if !in.Deadline.After(u.now()) {
		return nil, domain.ErrDeadlinePast
	}

	var dto *RequestDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Credits.Debit(ctx, in.Borrower, in.Collateral); err != nil {
			return err
		}
		if err := r.Credits.Credit(ctx, credit.CustodyAccount, in.Collateral); err != nil {
			return err
		}

		fr := &domain.FundingRequest{
			Borrower:     in.Borrower,
			Amount:       in.Amount,
			Deadline:     in.Deadline.UTC(),
			InterestRate: in.InterestRate,
			DurationDays: in.DurationDays,
			Collateral:   in.Collateral,
			FundingCap:   in.FundingCap,
		}
		if err := r.Requests.Create(ctx, fr); err != nil {
			return err
		}

		if err := r.Events.Append(ctx, &event.Event{
			EventID: id.NewID32(),
			Type:    event.TypeRequestCreated,
			Payload: event.Payload{
				RequestID:  fr.ID,
				Borrower:   fr.Borrower,
				Amount:     fr.Amount,
				Collateral: fr.Collateral,
			}.Marshal(),
		}); err != nil {
			return err
		}

		dto = toDTO(fr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// ApplyFund appends a contribution inside the caller's transaction, moving
// the attached currency from the contributor's wallet into custody, and
// reports whether the request just became fully subscribed. The contribution
// that would push the cumulative total past the requested amount is rejected,
// never capped.
func (u *Usecase) ApplyFund(ctx context.Context, r uow.Repos, fr *domain.FundingRequest, contributor string, amount uint64) (bool, error) {
	if amount == 0 {
		return false, domain.ErrInvalidAmount
	}
	if contributor == credit.CustodyAccount || contributor == wallet.CustodyAccount {
		return false, domain.ErrReservedAccount
	}
	if contributor == fr.Borrower {
		return false, domain.ErrSelfFunding
	}
	if fr.FullyFunded() {
		return false, domain.ErrFullyFunded
	}
	if fr.FundingCap > 0 && amount > fr.FundingCap {
		return false, domain.ErrContributionCap
	}
	if fr.Funded()+amount > fr.Amount {
		return false, domain.ErrOverfunded
	}

	if err := r.Wallets.Debit(ctx, contributor, amount); err != nil {
		return false, err
	}
	if err := r.Wallets.Credit(ctx, wallet.CustodyAccount, amount); err != nil {
		return false, err
	}

	c := &domain.Contribution{RequestID: fr.ID, Lender: contributor, Amount: amount}
	if err := r.Requests.AddContribution(ctx, c); err != nil {
		return false, err
	}
	fr.Contributions = append(fr.Contributions, *c)
	return fr.FullyFunded(), nil
}

// Withdraw pays the raised principal out to the borrower. Pull pattern: only
// the recorded borrower may call it, only once, and only after full
// subscription.
func (u *Usecase) Withdraw(ctx context.Context, requestID uint64, claimant string) (*RequestDTO, error) {
	var dto *RequestDTO
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, fr *domain.FundingRequest) error {
		if claimant != fr.Borrower {
			return domain.ErrNotBorrower
		}
		if !fr.FullyFunded() {
			return domain.ErrNotFullyFunded
		}
		if fr.Withdrawn {
			return domain.ErrAlreadyWithdrawn
		}

		if err := r.Wallets.Debit(ctx, wallet.CustodyAccount, fr.Amount); err != nil {
			return err
		}
		if err := r.Wallets.Credit(ctx, fr.Borrower, fr.Amount); err != nil {
			return err
		}

		fr.Withdrawn = true
		if err := r.Requests.Save(ctx, fr); err != nil {
			return err
		}

		if err := r.Events.Append(ctx, &event.Event{
			EventID: id.NewID32(),
			Type:    event.TypePrincipalWithdrawn,
			Payload: event.Payload{
				RequestID: fr.ID,
				Borrower:  fr.Borrower,
				Amount:    fr.Amount,
			}.Marshal(),
		}); err != nil {
			return err
		}

		dto = toDTO(fr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (u *Usecase) Get(ctx context.Context, requestID uint64) (*RequestDTO, error) {
	fr, err := u.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return toDTO(fr), nil
}

// HasContribution reports whether the lender has contributed to the request.
func (u *Usecase) HasContribution(ctx context.Context, lender string, requestID uint64) (bool, error) {
	return u.requests.HasContribution(ctx, lender, requestID)
}

func (u *Usecase) Count(ctx context.Context) (int64, error) {
	return u.requests.Count(ctx)
}

func toDTO(fr *domain.FundingRequest) *RequestDTO {
	contributions := make([]ContributionDTO, 0, len(fr.Contributions))
	for _, c := range fr.Contributions {
		contributions = append(contributions, ContributionDTO{Lender: c.Lender, Amount: c.Amount})
	}
	return &RequestDTO{
		RequestID:     fr.ID,
		Borrower:      fr.Borrower,
		Amount:        fr.Amount,
		Funded:        fr.Funded(),
		Deadline:      fr.Deadline,
		InterestRate:  fr.InterestRate,
		DurationDays:  fr.DurationDays,
		Collateral:    fr.Collateral,
		FundingCap:    fr.FundingCap,
		Withdrawn:     fr.Withdrawn,
		Contributions: contributions,
		CreatedAt:     fr.CreatedAt,
	}
}
