package reputation

import "time"

// RepaymentAward is the fixed trust-score increment for an on-time repayment.
const RepaymentAward = 40

// Score is a borrower's trust score. It starts at zero and only ever grows;
// defaults leave it untouched.
type Score struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	AccountID string    `gorm:"size:64;uniqueIndex:ux_reputation_account" json:"account_id"`
	Score     uint64    `gorm:"not null;default:0" json:"score"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Score) TableName() string { return "reputation_scores" }
