package loan

import (
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("loan not found")
	ErrNotBorrower         = errors.New("caller is not the borrower of this loan")
	ErrAlreadySettled      = errors.New("loan already repaid or defaulted")
	ErrInsufficientPayment = errors.New("payment does not cover principal plus interest")
	ErrPaymentMismatch     = errors.New("attached payment does not match the declared amount")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusRepaid    Status = "repaid"
	StatusDefaulted Status = "defaulted"
)

// Loan is the activated record of a fully subscribed funding request. It is
// created exactly once per request and settled exactly once, either by on-time
// repayment or by default past the deadline.
type Loan struct {
	ID           uint64     `gorm:"primaryKey;column:id" json:"loan_id"`
	RequestID    uint64     `gorm:"uniqueIndex:ux_loans_request;not null" json:"request_id"`
	Borrower     string     `gorm:"size:64;index:idx_loans_borrower" json:"borrower"`
	InterestRate uint64     `gorm:"not null" json:"interest_rate"`
	Status       Status     `gorm:"size:16;not null;default:'active'" json:"status"`
	Lenders      []Lender   `gorm:"foreignKey:LoanID" json:"lenders,omitempty"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Repaid reports whether the loan settled along the success path.
func (l *Loan) Repaid() bool { return l.Status == StatusRepaid }

// Settled reports whether the loan has been terminally processed.
func (l *Loan) Settled() bool { return l.Status != StatusActive }

// Lender is the loan's authoritative snapshot of one contribution, copied from
// the funding request at activation. Payout math reads this snapshot, never
// the request's live list.
type Lender struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID uint64 `gorm:"index:idx_loan_lenders_loan;not null" json:"loan_id"`
	Lender string `gorm:"size:64;not null" json:"lender"`
	Amount uint64 `gorm:"not null" json:"amount"`
}

func (Lender) TableName() string { return "loan_lenders" }
