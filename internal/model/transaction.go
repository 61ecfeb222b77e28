package model

import (
	"time"
)

// Payment transaction states. A row moves from initiated to exactly one
// terminal state (confirmed or failed), never back.
const (
	TransactionInitiated = "initiated"
	TransactionConfirmed = "confirmed"
	TransactionFailed    = "failed"
)

type PaymentTransaction struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	// MerchantReference is our m_payment_id, assigned at checkout.
	MerchantReference string `gorm:"size:64;uniqueIndex;not null" json:"merchant_reference"`
	// GatewayTransactionID is PayFast's pf_payment_id, set on confirmation.
	// It is the idempotency key for ITN replays.
	GatewayTransactionID *string   `gorm:"size:100;uniqueIndex" json:"gateway_transaction_id,omitempty"`
	UserID               int64     `gorm:"not null;index" json:"user_id"`
	PlanID               int64     `gorm:"not null" json:"plan_id"`
	SubscriptionID       int64     `gorm:"not null;index" json:"subscription_id"`
	AmountGrossCents     int64     `json:"amount_gross_cents"`
	AmountFeeCents       int64     `json:"amount_fee_cents"`
	AmountNetCents       int64     `json:"amount_net_cents"`
	Status               string    `gorm:"size:20;not null;index" json:"status"`
	// RawPayload keeps the notification bytes for audit and replay investigation.
	RawPayload  []byte     `gorm:"type:blob" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// IsTerminal reports whether the transaction already reached a final status.
func (t *PaymentTransaction) IsTerminal() bool {
	return t.Status == TransactionConfirmed || t.Status == TransactionFailed
}
