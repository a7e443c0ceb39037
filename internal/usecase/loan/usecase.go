package loan

import (
	"context"
	"time"

	"blolend/internal/domain/credit"
	"blolend/internal/domain/event"
	domain "blolend/internal/domain/loan"
	"blolend/internal/domain/reputation"
	reqdomain "blolend/internal/domain/request"
	"blolend/internal/domain/uow"
	"blolend/internal/domain/wallet"
	requestuc "blolend/internal/usecase/request"
	"blolend/pkg/id"
)

// Usecase is the loan ledger: it activates a loan when a funding request
// becomes fully subscribed and settles it exactly once, by repayment or by
// default.
type Usecase struct {
	loans    domain.Repository
	registry *requestuc.Usecase
	uow      uow.UnitOfWork
	now      func() time.Time
}

func NewUsecase(loans domain.Repository, registry *requestuc.Usecase, tx uow.UnitOfWork) *Usecase {
	return &Usecase{
		loans:    loans,
		registry: registry,
		uow:      tx,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateFundingRequest is the single borrower entry point: it escrows the
// collateral and registers the request via the registry.
func (u *Usecase) CreateFundingRequest(ctx context.Context, in requestuc.CreateInput) (*requestuc.RequestDTO, error) {
	return u.registry.Create(ctx, in)
}

// FundRequest forwards a contribution to the registry and, when that
// contribution fully subscribes the request, activates the loan in the same
// transaction: a new loan id, the lender snapshot, and the activation event
// all commit atomically with the contribution. payment is the currency
// attached to the call and must equal amount.
func (u *Usecase) FundRequest(ctx context.Context, requestID uint64, contributor string, amount, payment uint64) (*FundResult, error) {
	if amount != payment {
		return nil, domain.ErrPaymentMismatch
	}

	var res *FundResult
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, fr *reqdomain.FundingRequest) error {
		full, err := u.registry.ApplyFund(ctx, r, fr, contributor, amount)
		if err != nil {
			return err
		}
		res = &FundResult{RequestID: fr.ID, Funded: fr.Funded(), FullyFunded: full}
		if !full {
			return nil
		}

		l := &domain.Loan{
			RequestID:    fr.ID,
			Borrower:     fr.Borrower,
			InterestRate: fr.InterestRate,
			Status:       domain.StatusActive,
		}
		for _, c := range fr.Contributions {
			l.Lenders = append(l.Lenders, domain.Lender{Lender: c.Lender, Amount: c.Amount})
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		res.ActivatedLoanID = &l.ID

		return r.Events.Append(ctx, &event.Event{
			EventID: id.NewID32(),
			Type:    event.TypeLoanActivated,
			Payload: event.Payload{
				RequestID: fr.ID,
				LoanID:    l.ID,
				Borrower:  fr.Borrower,
				Amount:    fr.Amount,
			}.Marshal(),
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Withdraw releases the raised principal to the borrower, scoped to the
// loan's originating request.
func (u *Usecase) Withdraw(ctx context.Context, loanID uint64, claimant string) (*requestuc.RequestDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return u.registry.Withdraw(ctx, l.RequestID, claimant)
}

// Repay settles the loan. Called at or before the deadline with a payment
// covering principal plus interest, it pays every lender its contribution
// scaled by the interest factor, returns the collateral, and awards
// reputation. Called after the deadline, it takes the default branch instead:
// the collateral is split across the lenders proportionally to their
// contributions and no currency moves. Either way the loan is settled at most
// once and the whole call commits or aborts as one transaction.
func (u *Usecase) Repay(ctx context.Context, loanID uint64, caller string, payment uint64) (*RepayResult, error) {
	var res *RepayResult
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if caller != l.Borrower {
			return domain.ErrNotBorrower
		}
		if l.Settled() {
			return domain.ErrAlreadySettled
		}

		fr, err := r.Requests.GetByIDForUpdate(ctx, l.RequestID)
		if err != nil {
			return err
		}

		if u.now().After(fr.Deadline) {
			return u.settleDefault(ctx, r, l, fr, &res)
		}
		return u.settleRepaid(ctx, r, l, fr, payment, &res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *Usecase) settleRepaid(ctx context.Context, r uow.Repos, l *domain.Loan, fr *reqdomain.FundingRequest, payment uint64, res **RepayResult) error {
	due := interestDue(fr.Amount, l.InterestRate)
	if payment < due {
		return domain.ErrInsufficientPayment
	}

	// Collect the attached payment. Overpayment beyond the amount due stays
	// in custody.
	if err := r.Wallets.Debit(ctx, l.Borrower, payment); err != nil {
		return err
	}
	if err := r.Wallets.Credit(ctx, wallet.CustodyAccount, payment); err != nil {
		return err
	}

	payouts := splitPayout(l.Lenders, l.InterestRate, due)
	dtos := make([]LenderDTO, 0, len(l.Lenders))
	for i, lender := range l.Lenders {
		if err := r.Wallets.Debit(ctx, wallet.CustodyAccount, payouts[i]); err != nil {
			return err
		}
		if err := r.Wallets.Credit(ctx, lender.Lender, payouts[i]); err != nil {
			return err
		}
		dtos = append(dtos, LenderDTO{Lender: lender.Lender, Amount: payouts[i]})
	}

	// Return the full collateral from custody.
	if err := r.Credits.Debit(ctx, credit.CustodyAccount, fr.Collateral); err != nil {
		return err
	}
	if err := r.Credits.Credit(ctx, l.Borrower, fr.Collateral); err != nil {
		return err
	}

	now := u.now()
	l.Status = domain.StatusRepaid
	l.SettledAt = &now
	if err := r.Loans.Save(ctx, l); err != nil {
		return err
	}

	if err := r.Reputation.Add(ctx, l.Borrower, reputation.RepaymentAward); err != nil {
		return err
	}

	if err := r.Events.Append(ctx, &event.Event{
		EventID: id.NewID32(),
		Type:    event.TypeRepaymentSucceeded,
		Payload: event.Payload{
			RequestID:  fr.ID,
			LoanID:     l.ID,
			Borrower:   l.Borrower,
			Amount:     due,
			Collateral: fr.Collateral,
		}.Marshal(),
	}); err != nil {
		return err
	}

	*res = &RepayResult{LoanID: l.ID, Status: string(l.Status), Payouts: dtos, Collateral: fr.Collateral}
	return nil
}

func (u *Usecase) settleDefault(ctx context.Context, r uow.Repos, l *domain.Loan, fr *reqdomain.FundingRequest, res **RepayResult) error {
	shares := splitCollateral(l.Lenders, fr.Collateral, fr.Amount)
	dtos := make([]LenderDTO, 0, len(l.Lenders))
	for i, lender := range l.Lenders {
		if err := r.Credits.Debit(ctx, credit.CustodyAccount, shares[i]); err != nil {
			return err
		}
		if err := r.Credits.Credit(ctx, lender.Lender, shares[i]); err != nil {
			return err
		}
		dtos = append(dtos, LenderDTO{Lender: lender.Lender, Amount: shares[i]})
	}

	now := u.now()
	l.Status = domain.StatusDefaulted
	l.SettledAt = &now
	if err := r.Loans.Save(ctx, l); err != nil {
		return err
	}

	if err := r.Events.Append(ctx, &event.Event{
		EventID: id.NewID32(),
		Type:    event.TypeLoanDefaulted,
		Payload: event.Payload{
			RequestID:  fr.ID,
			LoanID:     l.ID,
			Borrower:   l.Borrower,
			Collateral: fr.Collateral,
		}.Marshal(),
	}); err != nil {
		return err
	}

	*res = &RepayResult{LoanID: l.ID, Status: string(l.Status), Payouts: dtos, Collateral: fr.Collateral}
	return nil
}

func (u *Usecase) Get(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toLoanDTO(l), nil
}

// GetByRequest resolves the loan activated from a funding request; not found
// while the request is still subscribing.
func (u *Usecase) GetByRequest(ctx context.Context, requestID uint64) (*LoanDTO, error) {
	l, err := u.loans.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return toLoanDTO(l), nil
}

func toLoanDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:       l.ID,
		RequestID:    l.RequestID,
		Borrower:     l.Borrower,
		InterestRate: l.InterestRate,
		Status:       string(l.Status),
		Repaid:       l.Repaid(),
		SettledAt:    l.SettledAt,
		CreatedAt:    l.CreatedAt,
	}
}

// Lenders returns the loan's contribution snapshot in funding order.
func (u *Usecase) Lenders(ctx context.Context, loanID uint64) ([]LenderDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	out := make([]LenderDTO, 0, len(l.Lenders))
	for _, lender := range l.Lenders {
		out = append(out, LenderDTO{Lender: lender.Lender, Amount: lender.Amount})
	}
	return out, nil
}

func (u *Usecase) Count(ctx context.Context) (int64, error) {
	return u.loans.Count(ctx)
}

// Deadline returns the repayment deadline of the loan's originating request.
func (u *Usecase) Deadline(ctx context.Context, loanID uint64) (time.Time, error) {
	var deadline time.Time
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return deadline, err
	}
	dto, err := u.registry.Get(ctx, l.RequestID)
	if err != nil {
		return deadline, err
	}
	return dto.Deadline, nil
}

// SetDeadline rewrites the originating request's deadline. Test seam for the
// time-based repay branch; the route is registered only when the deadline
// override flag is enabled.
func (u *Usecase) SetDeadline(ctx context.Context, loanID uint64, deadline time.Time) error {
	return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		fr, err := r.Requests.GetByIDForUpdate(ctx, l.RequestID)
		if err != nil {
			return err
		}
		fr.Deadline = deadline.UTC()
		return r.Requests.Save(ctx, fr)
	})
}
