package credit

import (
	"errors"
	"time"
)

var ErrInsufficientCredit = errors.New("insufficient credit balance")

// CustodyAccount holds collateral escrowed by the protocol between request
// creation and loan settlement.
const CustodyAccount = "protocol:custody"

// Account is a per-account internal credit balance. Credit units are the
// collateral currency; they are minted only by the exchange path.
type Account struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	AccountID string    `gorm:"size:64;uniqueIndex:ux_credit_accounts_account" json:"account_id"`
	Balance   uint64    `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Account) TableName() string { return "credit_accounts" }
