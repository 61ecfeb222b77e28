package model

import (
	"time"
)

// Plan type identifiers, lowest tier first.
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanGrowth  = "growth"
	PlanPremium = "premium"
)

// Unlimited marks a plan limit as unconstrained.
const Unlimited = -1

// SubscriptionPlan is admin-managed reference data. The engine only reads it.
type SubscriptionPlan struct {
	ID            int64  `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"size:50;not null" json:"name"`
	PlanType      string `gorm:"size:20;uniqueIndex;not null" json:"plan_type"`
	PriceCents    int64  `gorm:"not null" json:"price_cents"` // ZAR minor units
	BillingPeriod string `gorm:"size:20;default:monthly" json:"billing_period"`
	PeriodDays    int    `gorm:"default:31" json:"period_days"`
	AllowUpload   bool   `gorm:"default:false" json:"allow_upload"`
	AllowAI       bool   `gorm:"default:false" json:"allow_ai"`
	AllowLibrary  bool   `gorm:"default:false" json:"allow_library"`
	// AllowedSubjectCount limits how many subjects the plan covers, -1 = unlimited.
	AllowedSubjectCount int `gorm:"default:0" json:"allowed_subject_count"`
	// MonthlyGenerationLimit caps AI generations per subject per period, -1 = unlimited.
	MonthlyGenerationLimit int       `gorm:"default:0" json:"monthly_generation_limit"`
	Description            string    `gorm:"type:text" json:"description"`
	// No gorm default here: a column default of true would make gorm drop
	// the zero value from inserts, so a plan could never be created inactive.
	IsActive               bool      `json:"is_active"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}
