package event

import (
	"encoding/json"
	"time"
)

// Notification types emitted by the protocol. Each carries the identifiers an
// external observer needs to reconstruct state without re-querying.
const (
	TypeRequestCreated     = "request.created"
	TypeLoanActivated      = "loan.activated"
	TypePrincipalWithdrawn = "principal.withdrawn"
	TypeRepaymentSucceeded = "repayment.succeeded"
	TypeLoanDefaulted      = "loan.defaulted"
)

// Event is an outbox row. It is appended inside the same transaction as the
// state change it describes and published to the notification channel by the
// background dispatcher.
type Event struct {
	ID          uint64     `gorm:"primaryKey;column:id" json:"-"`
	EventID     string     `gorm:"size:32;uniqueIndex:ux_events_event_id" json:"event_id"`
	Type        string     `gorm:"size:32;index:idx_events_type" json:"type"`
	Payload     []byte     `gorm:"type:json" json:"payload"`
	PublishedAt *time.Time `gorm:"index:idx_events_published" json:"published_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Event) TableName() string { return "events" }

// Payload is the JSON body shared by all notification types. Fields that do
// not apply to a type are omitted.
type Payload struct {
	RequestID  uint64 `json:"request_id,omitempty"`
	LoanID     uint64 `json:"loan_id,omitempty"`
	Borrower   string `json:"borrower,omitempty"`
	Lender     string `json:"lender,omitempty"`
	Amount     uint64 `json:"amount,omitempty"`
	Collateral uint64 `json:"collateral,omitempty"`
}

// Marshal encodes p for storage in the outbox.
func (p Payload) Marshal() []byte {
	b, _ := json.Marshal(p)
	return b
}
