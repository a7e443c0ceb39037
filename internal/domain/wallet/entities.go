package wallet

import (
	"errors"
	"time"
)

var ErrInsufficientFunds = errors.New("insufficient wallet balance")

// CustodyAccount holds raised principal between funding and borrower
// withdrawal, and collected repayments during payout.
const CustodyAccount = "protocol:custody"

// Account is a per-account base-currency balance, in the smallest currency
// unit. Funding and repayment debit the caller's wallet for the amount
// attached to the call; withdrawals and payouts credit it.
type Account struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	AccountID string    `gorm:"size:64;uniqueIndex:ux_wallet_accounts_account" json:"account_id"`
	Balance   uint64    `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Account) TableName() string { return "wallet_accounts" }
