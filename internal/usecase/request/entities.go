package request

import (
	"time"
)

type CreateInput struct {
	Borrower     string
	Amount       uint64
	Deadline     time.Time
	InterestRate uint64
	DurationDays uint64
	Collateral   uint64
	FundingCap   uint64
}

type ContributionDTO struct {
	Lender string `json:"lender"`
	Amount uint64 `json:"amount"`
}

type RequestDTO struct {
	RequestID     uint64            `json:"request_id"`
	Borrower      string            `json:"borrower"`
	Amount        uint64            `json:"amount"`
	Funded        uint64            `json:"funded"`
	Deadline      time.Time         `json:"deadline"`
	InterestRate  uint64            `json:"interest_rate"`
	DurationDays  uint64            `json:"duration_days"`
	Collateral    uint64            `json:"collateral"`
	FundingCap    uint64            `json:"funding_cap"`
	Withdrawn     bool              `json:"withdrawn"`
	Contributions []ContributionDTO `json:"contributions"`
	CreatedAt     time.Time         `json:"created_at"`
}
