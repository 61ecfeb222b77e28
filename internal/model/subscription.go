package model

import (
	"time"
)

// Subscription lifecycle states. pending and active are the non-terminal
// states; a user has at most one non-terminal subscription at a time.
const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

type UserSubscription struct {
	ID                 int64     `gorm:"primaryKey" json:"id"`
	UserID             int64     `gorm:"not null;index" json:"user_id"`
	PlanID             int64     `gorm:"not null;index" json:"plan_id"`
	Status             string    `gorm:"size:20;not null;index" json:"status"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `gorm:"index" json:"current_period_end"`
	// SelectedSubjectID pins the subscription to one subject when the plan
	// restricts subject count.
	SelectedSubjectID *int64     `json:"selected_subject_id,omitempty"`
	GatewayToken      string     `gorm:"size:100" json:"-"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}

// IsTerminal reports whether the subscription can never become active again.
func (s *UserSubscription) IsTerminal() bool {
	return s.Status == SubscriptionCancelled || s.Status == SubscriptionExpired
}

// EntitledAt reports whether plan features are still granted at the given
// instant. A cancelled subscription keeps its features until the period ends.
func (s *UserSubscription) EntitledAt(now time.Time) bool {
	switch s.Status {
	case SubscriptionActive, SubscriptionCancelled:
		return now.Before(s.CurrentPeriodEnd)
	default:
		return false
	}
}
