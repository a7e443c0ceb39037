package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"blolend/internal/adapter/repository/mysql"
	creditDomain "blolend/internal/domain/credit"
	eventDomain "blolend/internal/domain/event"
	domain "blolend/internal/domain/loan"
	repDomain "blolend/internal/domain/reputation"
	reqDomain "blolend/internal/domain/request"
	walletDomain "blolend/internal/domain/wallet"
	requestuc "blolend/internal/usecase/request"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	borrower = "acct-borrower"
	lenderA  = "acct-lender-a"
	lenderB  = "acct-lender-b"

	principal  = uint64(1_000_000)
	collateral = uint64(50)
)

type env struct {
	ledger     *Usecase
	registry   *requestuc.Usecase
	credits    *mysql.CreditRepository
	wallets    *mysql.WalletRepository
	reputation *mysql.ReputationRepository
	events     *mysql.EventRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&reqDomain.FundingRequest{}, &reqDomain.Contribution{},
		&domain.Loan{}, &domain.Lender{},
		&creditDomain.Account{}, &walletDomain.Account{},
		&repDomain.Score{}, &eventDomain.Event{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	uow := mysql.NewGormUoW(db)
	registry := requestuc.NewUsecase(mysql.NewRequestRepository(db), uow)
	return &env{
		ledger:     NewUsecase(mysql.NewLoanRepository(db), registry, uow),
		registry:   registry,
		credits:    mysql.NewCreditRepository(db),
		wallets:    mysql.NewWalletRepository(db),
		reputation: mysql.NewReputationRepository(db),
		events:     mysql.NewEventRepository(db),
	}
}

func (e *env) creditBalance(t *testing.T, account string) uint64 {
	t.Helper()
	b, err := e.credits.BalanceOf(context.Background(), account)
	if err != nil {
		t.Fatalf("credit BalanceOf(%s): %v", account, err)
	}
	return b
}

func (e *env) walletBalance(t *testing.T, account string) uint64 {
	t.Helper()
	b, err := e.wallets.BalanceOf(context.Background(), account)
	if err != nil {
		t.Fatalf("wallet BalanceOf(%s): %v", account, err)
	}
	return b
}

func (e *env) eventTypes(t *testing.T) []string {
	t.Helper()
	pending, err := e.events.ListUnpublished(context.Background(), 100)
	if err != nil {
		t.Fatalf("ListUnpublished: %v", err)
	}
	out := make([]string, 0, len(pending))
	for _, ev := range pending {
		out = append(out, ev.Type)
	}
	return out
}

func hasEvent(types []string, want string) bool {
	for _, ty := range types {
		if ty == want {
			return true
		}
	}
	return false
}

// seedRequest escrows collateral for the borrower and posts a request due in
// 24 hours.
func seedRequest(t *testing.T, e *env) *requestuc.RequestDTO {
	t.Helper()
	ctx := context.Background()
	if err := e.credits.Credit(ctx, borrower, collateral); err != nil {
		t.Fatalf("seed credit: %v", err)
	}
	dto, err := e.ledger.CreateFundingRequest(ctx, requestuc.CreateInput{
		Borrower:     borrower,
		Amount:       principal,
		Deadline:     time.Now().UTC().Add(24 * time.Hour),
		InterestRate: 10,
		DurationDays: 30,
		Collateral:   collateral,
	})
	if err != nil {
		t.Fatalf("CreateFundingRequest: %v", err)
	}
	return dto
}

// fullyFund has A and B split the principal evenly and returns the activated
// loan id.
func fullyFund(t *testing.T, e *env, requestID uint64) uint64 {
	t.Helper()
	ctx := context.Background()
	half := principal / 2
	for _, lender := range []string{lenderA, lenderB} {
		if err := e.wallets.Credit(ctx, lender, half); err != nil {
			t.Fatalf("seed wallet %s: %v", lender, err)
		}
	}
	if _, err := e.ledger.FundRequest(ctx, requestID, lenderA, half, half); err != nil {
		t.Fatalf("fund A: %v", err)
	}
	res, err := e.ledger.FundRequest(ctx, requestID, lenderB, half, half)
	if err != nil {
		t.Fatalf("fund B: %v", err)
	}
	if !res.FullyFunded || res.ActivatedLoanID == nil {
		t.Fatalf("second contribution did not activate a loan: %+v", res)
	}
	return *res.ActivatedLoanID
}

func TestCreateFundingRequest_EscrowsCollateral(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)

	if dto.RequestID == 0 {
		t.Fatalf("request id not assigned")
	}
	if got := e.creditBalance(t, borrower); got != 0 {
		t.Fatalf("borrower credit = %d, want 0", got)
	}
	if got := e.creditBalance(t, creditDomain.CustodyAccount); got != collateral {
		t.Fatalf("custody credit = %d, want %d", got, collateral)
	}
	if !hasEvent(e.eventTypes(t), eventDomain.TypeRequestCreated) {
		t.Fatalf("request.created event not recorded")
	}
}

func TestCreateFundingRequest_InsufficientCollateral(t *testing.T) {
	e := newEnv(t)
	_, err := e.ledger.CreateFundingRequest(context.Background(), requestuc.CreateInput{
		Borrower:     borrower,
		Amount:       principal,
		Deadline:     time.Now().UTC().Add(time.Hour),
		InterestRate: 10,
		Collateral:   collateral,
	})
	if !errors.Is(err, creditDomain.ErrInsufficientCredit) {
		t.Fatalf("err = %v, want ErrInsufficientCredit", err)
	}
	// nothing may have been created
	n, err := e.registry.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("request count = %d after failed create", n)
	}
}

func TestFundRequest_SelfFundingForbidden(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)

	if err := e.wallets.Credit(context.Background(), borrower, principal); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	_, err := e.ledger.FundRequest(context.Background(), dto.RequestID, borrower, principal, principal)
	if !errors.Is(err, reqDomain.ErrSelfFunding) {
		t.Fatalf("err = %v, want ErrSelfFunding", err)
	}
}

func TestFundRequest_PaymentMismatch(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)

	_, err := e.ledger.FundRequest(context.Background(), dto.RequestID, lenderA, 500, 400)
	if !errors.Is(err, domain.ErrPaymentMismatch) {
		t.Fatalf("err = %v, want ErrPaymentMismatch", err)
	}
}

func TestFundRequest_OvershootRejected(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)
	ctx := context.Background()

	if err := e.wallets.Credit(ctx, lenderA, principal*2); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	if _, err := e.ledger.FundRequest(ctx, dto.RequestID, lenderA, 600_000, 600_000); err != nil {
		t.Fatalf("first contribution: %v", err)
	}

	// 600k + 500k would exceed the 1M ask: rejected, not capped
	_, err := e.ledger.FundRequest(ctx, dto.RequestID, lenderA, 500_000, 500_000)
	if !errors.Is(err, reqDomain.ErrOverfunded) {
		t.Fatalf("err = %v, want ErrOverfunded", err)
	}

	// the rejected call must not have moved money
	if got := e.walletBalance(t, lenderA); got != principal*2-600_000 {
		t.Fatalf("lender wallet = %d after rejected contribution", got)
	}
	got, err := e.registry.Get(ctx, dto.RequestID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Funded != 600_000 {
		t.Fatalf("funded = %d, want 600000", got.Funded)
	}
}

func TestFundRequest_PerLenderCap(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if err := e.credits.Credit(ctx, borrower, collateral); err != nil {
		t.Fatalf("seed credit: %v", err)
	}
	dto, err := e.ledger.CreateFundingRequest(ctx, requestuc.CreateInput{
		Borrower:     borrower,
		Amount:       principal,
		Deadline:     time.Now().UTC().Add(time.Hour),
		InterestRate: 10,
		Collateral:   collateral,
		FundingCap:   100_000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := e.wallets.Credit(ctx, lenderA, principal); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	_, err = e.ledger.FundRequest(ctx, dto.RequestID, lenderA, 200_000, 200_000)
	if !errors.Is(err, reqDomain.ErrContributionCap) {
		t.Fatalf("err = %v, want ErrContributionCap", err)
	}
	if _, err := e.ledger.FundRequest(ctx, dto.RequestID, lenderA, 100_000, 100_000); err != nil {
		t.Fatalf("capped contribution rejected: %v", err)
	}
}

func TestFundRequest_ActivatesLoanExactlyOnce(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)
	ctx := context.Background()

	loanID := fullyFund(t, e, dto.RequestID)
	if loanID == 0 {
		t.Fatalf("loan id not assigned")
	}
	n, err := e.ledger.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("loan count = %d, want 1", n)
	}
	if !hasEvent(e.eventTypes(t), eventDomain.TypeLoanActivated) {
		t.Fatalf("loan.activated event not recorded")
	}

	// snapshot carries both lenders in funding order
	lenders, err := e.ledger.Lenders(ctx, loanID)
	if err != nil {
		t.Fatalf("Lenders: %v", err)
	}
	if len(lenders) != 2 || lenders[0].Lender != lenderA || lenders[1].Lender != lenderB {
		t.Fatalf("snapshot = %+v", lenders)
	}

	// funding an already-activated request fails
	if err := e.wallets.Credit(ctx, lenderA, 1); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	_, err = e.ledger.FundRequest(ctx, dto.RequestID, lenderA, 1, 1)
	if !errors.Is(err, reqDomain.ErrFullyFunded) {
		t.Fatalf("err = %v, want ErrFullyFunded", err)
	}
}

func TestWithdraw_OnlyBorrowerExactlyOnce(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)
	loanID := fullyFund(t, e, dto.RequestID)
	ctx := context.Background()

	if _, err := e.ledger.Withdraw(ctx, loanID, lenderA); !errors.Is(err, reqDomain.ErrNotBorrower) {
		t.Fatalf("err = %v, want ErrNotBorrower", err)
	}

	got, err := e.ledger.Withdraw(ctx, loanID, borrower)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !got.Withdrawn {
		t.Fatalf("withdrawn flag not set")
	}
	if b := e.walletBalance(t, borrower); b != principal {
		t.Fatalf("borrower wallet = %d, want %d", b, principal)
	}
	if !hasEvent(e.eventTypes(t), eventDomain.TypePrincipalWithdrawn) {
		t.Fatalf("principal.withdrawn event not recorded")
	}

	if _, err := e.ledger.Withdraw(ctx, loanID, borrower); !errors.Is(err, reqDomain.ErrAlreadyWithdrawn) {
		t.Fatalf("err = %v, want ErrAlreadyWithdrawn", err)
	}
}

func TestWithdraw_NotFullyFunded(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)

	_, err := e.registry.Withdraw(context.Background(), dto.RequestID, borrower)
	if !errors.Is(err, reqDomain.ErrNotFullyFunded) {
		t.Fatalf("err = %v, want ErrNotFullyFunded", err)
	}
}

func TestRepay_OnTime(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)
	loanID := fullyFund(t, e, dto.RequestID)
	ctx := context.Background()

	if _, err := e.ledger.Withdraw(ctx, loanID, borrower); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	// top up the interest on top of the withdrawn principal
	due := principal * 110 / 100
	if err := e.wallets.Credit(ctx, borrower, due-principal); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}

	res, err := e.ledger.Repay(ctx, loanID, borrower, due)
	if err != nil {
		t.Fatalf("Repay: %v", err)
	}
	if res.Status != string(domain.StatusRepaid) {
		t.Fatalf("status = %s", res.Status)
	}

	// each lender gets its contribution plus 10%
	if b := e.walletBalance(t, lenderA); b != 550_000 {
		t.Fatalf("lender A wallet = %d, want 550000", b)
	}
	if b := e.walletBalance(t, lenderB); b != 550_000 {
		t.Fatalf("lender B wallet = %d, want 550000", b)
	}
	// collateral back in full
	if b := e.creditBalance(t, borrower); b != collateral {
		t.Fatalf("borrower credit = %d, want %d", b, collateral)
	}
	if b := e.creditBalance(t, creditDomain.CustodyAccount); b != 0 {
		t.Fatalf("custody credit = %d, want 0", b)
	}
	// reputation award
	score, err := e.reputation.Get(ctx, borrower)
	if err != nil {
		t.Fatalf("reputation Get: %v", err)
	}
	if score != repDomain.RepaymentAward {
		t.Fatalf("score = %d, want %d", score, repDomain.RepaymentAward)
	}
	if !hasEvent(e.eventTypes(t), eventDomain.TypeRepaymentSucceeded) {
		t.Fatalf("repayment.succeeded event not recorded")
	}

	loanDTO, err := e.ledger.Get(ctx, loanID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !loanDTO.Repaid || loanDTO.SettledAt == nil {
		t.Fatalf("loan not marked repaid: %+v", loanDTO)
	}
}

func TestRepay_InsufficientPayment(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)
	loanID := fullyFund(t, e, dto.RequestID)

	_, err := e.ledger.Repay(context.Background(), loanID, borrower, principal) // needs principal+10%
	if !errors.Is(err, domain.ErrInsufficientPayment) {
		t.Fatalf("err = %v, want ErrInsufficientPayment", err)
	}
}

func TestRepay_WrongCaller(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)
	loanID := fullyFund(t, e, dto.RequestID)

	_, err := e.ledger.Repay(context.Background(), loanID, lenderA, principal*2)
	if !errors.Is(err, domain.ErrNotBorrower) {
		t.Fatalf("err = %v, want ErrNotBorrower", err)
	}
	if b := e.walletBalance(t, lenderA); b != 0 {
		t.Fatalf("lender wallet changed on rejected repay: %d", b)
	}
}

func TestRepay_PastDeadline_SeizesCollateral(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)
	loanID := fullyFund(t, e, dto.RequestID)
	ctx := context.Background()

	if _, err := e.ledger.Withdraw(ctx, loanID, borrower); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	walletBefore := e.walletBalance(t, borrower)

	// jump past the deadline
	e.ledger.now = func() time.Time { return dto.Deadline.Add(time.Hour) }

	res, err := e.ledger.Repay(ctx, loanID, borrower, principal*110/100)
	if err != nil {
		t.Fatalf("Repay: %v", err)
	}
	if res.Status != string(domain.StatusDefaulted) {
		t.Fatalf("status = %s, want defaulted", res.Status)
	}

	// collateral split 25/25, no currency to lenders
	if b := e.creditBalance(t, lenderA); b != 25 {
		t.Fatalf("lender A credit = %d, want 25", b)
	}
	if b := e.creditBalance(t, lenderB); b != 25 {
		t.Fatalf("lender B credit = %d, want 25", b)
	}
	if b := e.walletBalance(t, lenderA); b != 0 {
		t.Fatalf("lender A wallet = %d, want 0", b)
	}
	// the borrower keeps the attached payment and loses the collateral
	if b := e.walletBalance(t, borrower); b != walletBefore {
		t.Fatalf("borrower wallet = %d, want %d", b, walletBefore)
	}
	if b := e.creditBalance(t, borrower); b != 0 {
		t.Fatalf("borrower credit = %d, want 0", b)
	}
	// no reputation for defaulting
	score, err := e.reputation.Get(ctx, borrower)
	if err != nil {
		t.Fatalf("reputation Get: %v", err)
	}
	if score != 0 {
		t.Fatalf("score = %d, want 0", score)
	}
	if !hasEvent(e.eventTypes(t), eventDomain.TypeLoanDefaulted) {
		t.Fatalf("loan.defaulted event not recorded")
	}
}

func TestRepay_Twice(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)
	loanID := fullyFund(t, e, dto.RequestID)
	ctx := context.Background()

	if _, err := e.ledger.Withdraw(ctx, loanID, borrower); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	due := principal * 110 / 100
	if err := e.wallets.Credit(ctx, borrower, due); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	if _, err := e.ledger.Repay(ctx, loanID, borrower, due); err != nil {
		t.Fatalf("first repay: %v", err)
	}

	_, err := e.ledger.Repay(ctx, loanID, borrower, due)
	if !errors.Is(err, domain.ErrAlreadySettled) {
		t.Fatalf("err = %v, want ErrAlreadySettled", err)
	}
}

func TestRepay_RoundingRemainder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// ask for 1001 with three uneven lenders so the 10% scaling rounds
	if err := e.credits.Credit(ctx, borrower, collateral); err != nil {
		t.Fatalf("seed credit: %v", err)
	}
	dto, err := e.ledger.CreateFundingRequest(ctx, requestuc.CreateInput{
		Borrower:     borrower,
		Amount:       1001,
		Deadline:     time.Now().UTC().Add(time.Hour),
		InterestRate: 10,
		Collateral:   collateral,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	lenders := []string{lenderA, lenderB, "acct-lender-c"}
	amounts := []uint64{333, 333, 335}
	var loanID uint64
	for i, lender := range lenders {
		if err := e.wallets.Credit(ctx, lender, amounts[i]); err != nil {
			t.Fatalf("seed wallet: %v", err)
		}
		res, err := e.ledger.FundRequest(ctx, dto.RequestID, lender, amounts[i], amounts[i])
		if err != nil {
			t.Fatalf("fund %s: %v", lender, err)
		}
		if res.ActivatedLoanID != nil {
			loanID = *res.ActivatedLoanID
		}
	}
	if loanID == 0 {
		t.Fatalf("loan not activated")
	}

	due := uint64(1001) * 110 / 100 // 1101
	if err := e.wallets.Credit(ctx, borrower, due); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	res, err := e.ledger.Repay(ctx, loanID, borrower, due)
	if err != nil {
		t.Fatalf("Repay: %v", err)
	}

	var sum uint64
	for _, p := range res.Payouts {
		sum += p.Amount
	}
	if sum != due {
		t.Fatalf("payout sum = %d, want %d", sum, due)
	}
	// floors for the first two, remainder to the last
	if res.Payouts[0].Amount != 366 || res.Payouts[1].Amount != 366 || res.Payouts[2].Amount != due-732 {
		t.Fatalf("payouts = %+v", res.Payouts)
	}
}

func TestSetDeadline_FlipsRepayBranch(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)
	loanID := fullyFund(t, e, dto.RequestID)
	ctx := context.Background()

	if err := e.ledger.SetDeadline(ctx, loanID, time.Now().UTC().Add(-time.Hour)); err != nil {
		t.Fatalf("SetDeadline: %v", err)
	}
	deadline, err := e.ledger.Deadline(ctx, loanID)
	if err != nil {
		t.Fatalf("Deadline: %v", err)
	}
	if !deadline.Before(time.Now().UTC()) {
		t.Fatalf("deadline not moved into the past: %v", deadline)
	}

	res, err := e.ledger.Repay(ctx, loanID, borrower, principal*110/100)
	if err != nil {
		t.Fatalf("Repay: %v", err)
	}
	if res.Status != string(domain.StatusDefaulted) {
		t.Fatalf("status = %s, want defaulted", res.Status)
	}
}

// Custody holds pooled principal for other, unwithdrawn loans; it must never
// be spendable as a contributor.
func TestFundRequest_CustodyCannotContribute(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)
	fullyFund(t, e, dto.RequestID) // custody wallet now holds the raised principal
	ctx := context.Background()

	second := seedSecondRequest(t, e, "acct-evil")
	_, err := e.ledger.FundRequest(ctx, second.RequestID, creditDomain.CustodyAccount, principal, principal)
	if !errors.Is(err, reqDomain.ErrReservedAccount) {
		t.Fatalf("err = %v, want ErrReservedAccount", err)
	}
	// the pooled principal stayed in custody
	if b := e.walletBalance(t, walletDomain.CustodyAccount); b != principal {
		t.Fatalf("custody wallet = %d, want %d", b, principal)
	}
}

func seedSecondRequest(t *testing.T, e *env, who string) *requestuc.RequestDTO {
	t.Helper()
	ctx := context.Background()
	if err := e.credits.Credit(ctx, who, 1); err != nil {
		t.Fatalf("seed credit: %v", err)
	}
	dto, err := e.ledger.CreateFundingRequest(ctx, requestuc.CreateInput{
		Borrower:     who,
		Amount:       principal,
		Deadline:     time.Now().UTC().Add(24 * time.Hour),
		InterestRate: 10,
		Collateral:   1,
	})
	if err != nil {
		t.Fatalf("CreateFundingRequest: %v", err)
	}
	return dto
}

func TestGetByRequest(t *testing.T) {
	e := newEnv(t)
	dto := seedRequest(t, e)
	ctx := context.Background()

	// no loan while the request is still subscribing
	if _, err := e.ledger.GetByRequest(ctx, dto.RequestID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	loanID := fullyFund(t, e, dto.RequestID)
	got, err := e.ledger.GetByRequest(ctx, dto.RequestID)
	if err != nil {
		t.Fatalf("GetByRequest: %v", err)
	}
	if got.LoanID != loanID || got.RequestID != dto.RequestID {
		t.Fatalf("loan = %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.ledger.Get(context.Background(), 42)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
