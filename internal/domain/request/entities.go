package request

import (
	"errors"
	"math"
	"time"
)

// MaxInterestRate bounds the integer percent rate a request may carry.
const MaxInterestRate = 1000

// MaxFundingAmount bounds amounts and collateral so that scaling by
// (100+rate) at the maximum rate cannot wrap a uint64.
const MaxFundingAmount = math.MaxUint64 / (100 + MaxInterestRate)

var (
	ErrNotFound         = errors.New("funding request not found")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidRate      = errors.New("interest rate exceeds the maximum")
	ErrReservedAccount  = errors.New("account is reserved for protocol custody")
	ErrDeadlinePast     = errors.New("repayment deadline must be in the future")
	ErrSelfFunding      = errors.New("borrower cannot fund their own request")
	ErrFullyFunded      = errors.New("request is already fully funded")
	ErrOverfunded       = errors.New("contribution would exceed the requested amount")
	ErrContributionCap  = errors.New("contribution exceeds the per-lender cap")
	ErrNotBorrower      = errors.New("caller is not the borrower of this request")
	ErrNotFullyFunded   = errors.New("request is not fully funded")
	ErrAlreadyWithdrawn = errors.New("principal already withdrawn")
)

// FundingRequest is a borrower's posted ask for principal, backed by credit
// collateral held in custody until the loan settles. Amounts are in the
// smallest currency unit; collateral is in credit units.
type FundingRequest struct {
	ID            uint64         `gorm:"primaryKey;column:id" json:"request_id"`
	Borrower      string         `gorm:"size:64;index:idx_requests_borrower" json:"borrower"`
	Amount        uint64         `gorm:"not null" json:"amount"`
	Deadline      time.Time      `gorm:"not null" json:"deadline"`
	InterestRate  uint64         `gorm:"not null" json:"interest_rate"` // integer percent, 10 = 10%
	DurationDays  uint64         `json:"duration_days"`                 // informational
	Collateral    uint64         `gorm:"not null" json:"collateral"`
	FundingCap    uint64         `json:"funding_cap"` // max single contribution, 0 = unlimited
	Withdrawn     bool           `gorm:"not null;default:false" json:"withdrawn"`
	Contributions []Contribution `gorm:"foreignKey:RequestID" json:"contributions,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"-"`
}

func (FundingRequest) TableName() string { return "funding_requests" }

// Contribution records one lender's stake in a request. Insertion order (the
// auto-increment id) is the funding order used for payout splitting.
type Contribution struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	RequestID uint64    `gorm:"index:idx_contributions_request;not null" json:"request_id"`
	Lender    string    `gorm:"size:64;not null" json:"lender"`
	Amount    uint64    `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Contribution) TableName() string { return "contributions" }

// Funded returns the cumulative contribution total.
func (r *FundingRequest) Funded() uint64 {
	var sum uint64
	for _, c := range r.Contributions {
		sum += c.Amount
	}
	return sum
}

// FullyFunded reports whether cumulative contributions have reached the
// requested amount. Contributions can never push the sum past Amount, so
// equality is the only "full" state.
func (r *FundingRequest) FullyFunded() bool { return r.Funded() == r.Amount }
