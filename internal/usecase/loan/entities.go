package loan

import "time"

type LoanDTO struct {
	LoanID       uint64     `json:"loan_id"`
	RequestID    uint64     `json:"request_id"`
	Borrower     string     `json:"borrower"`
	InterestRate uint64     `json:"interest_rate"`
	Status       string     `json:"status"`
	Repaid       bool       `json:"repaid"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type LenderDTO struct {
	Lender string `json:"lender"`
	Amount uint64 `json:"amount"`
}

// FundResult reports the outcome of a funding call; ActivatedLoanID is set
// only on the contribution that fully subscribes the request.
type FundResult struct {
	RequestID       uint64  `json:"request_id"`
	Funded          uint64  `json:"funded"`
	FullyFunded     bool    `json:"fully_funded"`
	ActivatedLoanID *uint64 `json:"activated_loan_id,omitempty"`
}

// RepayResult describes how a repayment call settled the loan.
type RepayResult struct {
	LoanID     uint64      `json:"loan_id"`
	Status     string      `json:"status"`
	Payouts    []LenderDTO `json:"payouts"`
	Collateral uint64      `json:"collateral"`
}
