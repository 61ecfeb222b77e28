package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
)

var fixtureSeq int64

func nextSeq() int64 {
	return atomic.AddInt64(&fixtureSeq, 1)
}

// TestUser creates a test user.
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	seq := nextSeq()
	user := &model.User{
		Username:      fmt.Sprintf("teacher_%d_%d", time.Now().UnixNano()%100000, seq),
		Email:         fmt.Sprintf("teacher_%d_%d@example.com", time.Now().UnixNano()%100000, seq),
		PasswordHash:  "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
		Role:          "teacher",
		EmailVerified: true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail sets the user email.
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithUsername sets the username.
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// TestSubject creates a test subject.
func TestSubject(t *testing.T, db *gorm.DB, name string) *model.Subject {
	t.Helper()

	if name == "" {
		name = fmt.Sprintf("Subject %d", nextSeq())
	}
	subject := &model.Subject{Name: name}
	if err := db.Create(subject).Error; err != nil {
		t.Fatalf("Failed to create test subject: %v", err)
	}

	return subject
}

// TestPlan creates a test subscription plan.
func TestPlan(t *testing.T, db *gorm.DB, opts ...func(*model.SubscriptionPlan)) *model.SubscriptionPlan {
	t.Helper()

	plan := &model.SubscriptionPlan{
		Name:                   "Premium",
		PlanType:               fmt.Sprintf("premium_%d", nextSeq()),
		PriceCents:             25000,
		BillingPeriod:          "monthly",
		PeriodDays:             31,
		AllowUpload:            true,
		AllowAI:                true,
		AllowLibrary:           true,
		AllowedSubjectCount:    model.Unlimited,
		MonthlyGenerationLimit: model.Unlimited,
		IsActive:               true,
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

// WithPlanType sets the plan type identifier.
func WithPlanType(planType string) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.PlanType = planType
	}
}

// WithPrice sets the plan price in cents.
func WithPrice(cents int64) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.PriceCents = cents
	}
}

// WithFeatures sets the plan's feature flags.
func WithFeatures(upload, ai, library bool) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.AllowUpload = upload
		p.AllowAI = ai
		p.AllowLibrary = library
	}
}

// WithGenerationLimit sets the per-subject monthly AI generation limit.
func WithGenerationLimit(limit int) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.MonthlyGenerationLimit = limit
	}
}

// WithSubjectCount sets how many subjects the plan covers.
func WithSubjectCount(count int) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.AllowedSubjectCount = count
	}
}

// TestSubscription creates a subscription row for the user on the plan.
func TestSubscription(t *testing.T, db *gorm.DB, userID, planID int64, opts ...func(*model.UserSubscription)) *model.UserSubscription {
	t.Helper()

	now := time.Now()
	sub := &model.UserSubscription{
		UserID:             userID,
		PlanID:             planID,
		Status:             model.SubscriptionActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 0, 31),
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithStatus sets the subscription status.
func WithStatus(status string) func(*model.UserSubscription) {
	return func(s *model.UserSubscription) {
		s.Status = status
	}
}

// WithPeriod sets the billing period bounds.
func WithPeriod(start, end time.Time) func(*model.UserSubscription) {
	return func(s *model.UserSubscription) {
		s.CurrentPeriodStart = start
		s.CurrentPeriodEnd = end
	}
}

// WithSelectedSubject pins the subscription to one subject.
func WithSelectedSubject(subjectID int64) func(*model.UserSubscription) {
	return func(s *model.UserSubscription) {
		s.SelectedSubjectID = &subjectID
	}
}

// TestTransaction creates an initiated payment transaction for the
// subscription.
func TestTransaction(t *testing.T, db *gorm.DB, userID, planID, subID int64, opts ...func(*model.PaymentTransaction)) *model.PaymentTransaction {
	t.Helper()

	txn := &model.PaymentTransaction{
		MerchantReference: fmt.Sprintf("SUB-TEST-%d", nextSeq()),
		UserID:            userID,
		PlanID:            planID,
		SubscriptionID:    subID,
		Status:            model.TransactionInitiated,
	}

	for _, opt := range opts {
		opt(txn)
	}

	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return txn
}

// WithAmountGross sets the expected gross amount in cents.
func WithAmountGross(cents int64) func(*model.PaymentTransaction) {
	return func(tx *model.PaymentTransaction) {
		tx.AmountGrossCents = cents
	}
}

// WithMerchantReference sets the checkout reference.
func WithMerchantReference(ref string) func(*model.PaymentTransaction) {
	return func(tx *model.PaymentTransaction) {
		tx.MerchantReference = ref
	}
}
