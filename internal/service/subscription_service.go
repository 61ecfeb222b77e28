package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/config"
	"github.com/stanleykwembe/brilltech-mega/internal/model"
	"github.com/stanleykwembe/brilltech-mega/internal/model/dto"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/payfast"
	"github.com/stanleykwembe/brilltech-mega/internal/repository"
)

var (
	ErrPlanNotFound        = errors.New("subscription plan not found")
	ErrPlanNotActive       = errors.New("subscription plan is not available")
	ErrSubscriptionExists  = errors.New("user already has a pending or active subscription")
	ErrNoSubscription      = errors.New("no subscription found")
	ErrInvalidTransition   = errors.New("illegal subscription state transition")
	ErrSubjectRequired     = errors.New("plan requires selecting a subject")
	ErrSubjectNotPermitted = errors.New("subject not covered by subscription")
)

// freePlanPeriodDays is the open-ended period granted on free enrollment;
// no payment ever renews it, the row is simply re-extended on read if needed.
const freePlanPeriodDays = 365

// SubscriptionService owns UserSubscription state and its legal transitions:
// pending → active → {cancelled, expired}, plus active → active renewal.
// Expiry is evaluated lazily on every read, so no caller can observe
// active-plan features past the period end.
type SubscriptionService struct {
	subscriptionRepo *repository.SubscriptionRepository
	planRepo         *repository.PlanRepository
	transactionRepo  *repository.TransactionRepository
	cfg              *config.Config
	logger           *zap.Logger
	now              func() time.Time
}

func NewSubscriptionService(
	subscriptionRepo *repository.SubscriptionRepository,
	planRepo *repository.PlanRepository,
	transactionRepo *repository.TransactionRepository,
	cfg *config.Config,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		transactionRepo:  transactionRepo,
		cfg:              cfg,
		logger:           logger,
		now:              time.Now,
	}
}

// Enroll starts a new subscription lifecycle. The free plan activates
// immediately; a paid plan creates a pending row plus an initiated payment
// transaction and returns the signed checkout form for the redirect.
func (s *SubscriptionService) Enroll(userID int64, req *dto.UpgradeRequest) (*dto.UpgradeResponse, error) {
	plan, err := s.planRepo.GetByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanNotActive
	}

	// An existing live subscription blocks a second enrollment, with one
	// exception: a free subscription never blocks a paid upgrade. The free
	// row keeps granting features until the paid payment confirms, at which
	// point activation supersedes it.
	current, err := s.subscriptionRepo.GetNonTerminalByUser(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if current != nil {
		currentPlan, err := s.planRepo.GetByID(current.PlanID)
		if err != nil {
			return nil, err
		}
		if currentPlan.PriceCents > 0 || plan.PriceCents == 0 {
			return nil, ErrSubscriptionExists
		}
	}

	if plan.AllowedSubjectCount == 1 && req.SubjectID == nil {
		return nil, ErrSubjectRequired
	}

	now := s.now()

	if plan.PriceCents == 0 {
		sub := &model.UserSubscription{
			UserID:             userID,
			PlanID:             plan.ID,
			Status:             model.SubscriptionActive,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   now.AddDate(0, 0, freePlanPeriodDays),
			SelectedSubjectID:  req.SubjectID,
		}
		if err := s.subscriptionRepo.Create(sub); err != nil {
			return nil, err
		}
		s.logger.Info("free subscription enrolled",
			zap.Int64("user_id", userID),
			zap.Int64("subscription_id", sub.ID),
		)
		return &dto.UpgradeResponse{SubscriptionID: sub.ID}, nil
	}

	sub := &model.UserSubscription{
		UserID:            userID,
		PlanID:            plan.ID,
		Status:            model.SubscriptionPending,
		SelectedSubjectID: req.SubjectID,
	}
	if err := s.subscriptionRepo.Create(sub); err != nil {
		return nil, err
	}

	txn := &model.PaymentTransaction{
		MerchantReference: generateMerchantReference(),
		UserID:            userID,
		PlanID:            plan.ID,
		SubscriptionID:    sub.ID,
		AmountGrossCents:  plan.PriceCents,
		Status:            model.TransactionInitiated,
	}
	if err := s.transactionRepo.Create(txn); err != nil {
		return nil, err
	}

	checkout := s.buildCheckoutForm(userID, plan, sub, txn)

	s.logger.Info("paid enrollment started",
		zap.Int64("user_id", userID),
		zap.Int64("subscription_id", sub.ID),
		zap.Int64("plan_id", plan.ID),
		zap.String("merchant_reference", txn.MerchantReference),
	)

	return &dto.UpgradeResponse{SubscriptionID: sub.ID, Checkout: checkout}, nil
}

// Activate applies a confirmed payment: pending → active, or active → active
// for a renewal that extends the period. Any other source state is an
// illegal transition and is never coerced. Activation also retires any other
// live row of the same user, so an upgraded-from free subscription ends here.
func (s *SubscriptionService) Activate(subscriptionID int64, periodDays int) error {
	if periodDays <= 0 {
		periodDays = 31
	}
	sub, err := s.subscriptionRepo.GetByID(subscriptionID)
	if err != nil {
		return err
	}
	now := s.now()

	ok, err := s.subscriptionRepo.Activate(subscriptionID, now, now.AddDate(0, 0, periodDays))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: activate subscription %d", ErrInvalidTransition, subscriptionID)
	}

	if n, err := s.subscriptionRepo.ExpireOthers(sub.UserID, sub.ID); err != nil {
		return err
	} else if n > 0 {
		s.logger.Info("superseded previous subscriptions",
			zap.Int64("user_id", sub.UserID),
			zap.Int64("count", n),
		)
	}

	s.logger.Info("subscription activated",
		zap.Int64("subscription_id", subscriptionID),
		zap.Int("period_days", periodDays),
	)
	return nil
}

// Cancel schedules a downgrade: the row flips to cancelled now but keeps
// granting plan features until the period end passes.
func (s *SubscriptionService) Cancel(userID int64) error {
	sub, err := s.subscriptionRepo.GetCurrentByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoSubscription
		}
		return err
	}

	ok, err := s.subscriptionRepo.Cancel(sub.ID, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: cancel subscription %d in status %s",
			ErrInvalidTransition, sub.ID, sub.Status)
	}

	s.logger.Info("subscription cancelled",
		zap.Int64("user_id", userID),
		zap.Int64("subscription_id", sub.ID),
		zap.Time("effective_at", sub.CurrentPeriodEnd),
	)
	return nil
}

// Current returns the subscription that governs the user's entitlements,
// applying lazy expiry first. A user without any row is enrolled on the
// free plan on the spot.
func (s *SubscriptionService) Current(userID int64) (*model.UserSubscription, error) {
	sub, err := s.subscriptionRepo.GetCurrentByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.enrollFreeDefault(userID)
		}
		return nil, err
	}

	// The stored status is only trustworthy up to currentPeriodEnd.
	if sub.Status == model.SubscriptionActive && !s.now().Before(sub.CurrentPeriodEnd) {
		if _, err := s.subscriptionRepo.ExpireIfOverdue(sub.ID, s.now()); err != nil {
			return nil, err
		}
		sub.Status = model.SubscriptionExpired
	}

	return sub, nil
}

// CurrentPlan resolves the plan whose features the user holds right now.
// Expired, lapsed-cancelled and pending subscriptions fall back to the free
// tier.
func (s *SubscriptionService) CurrentPlan(userID int64) (*model.SubscriptionPlan, *model.UserSubscription, error) {
	sub, err := s.Current(userID)
	if err != nil {
		return nil, nil, err
	}

	if !sub.EntitledAt(s.now()) {
		free, err := s.planRepo.GetByType(model.PlanFree)
		if err != nil {
			return nil, nil, err
		}
		return free, sub, nil
	}

	plan, err := s.planRepo.GetByID(sub.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return plan, sub, nil
}

// ExpireOverdue proactively flips lapsed active rows; the sweeper calls this
// on a timer. The read path stays authoritative either way.
func (s *SubscriptionService) ExpireOverdue() (int64, error) {
	n, err := s.subscriptionRepo.ExpireOverdue(s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired overdue subscriptions", zap.Int64("count", n))
	}
	return n, nil
}

// Info renders the current subscription joined with its plan for display.
func (s *SubscriptionService) Info(userID int64) (*dto.SubscriptionInfo, error) {
	plan, sub, err := s.CurrentPlan(userID)
	if err != nil {
		return nil, err
	}

	return &dto.SubscriptionInfo{
		ID:                 sub.ID,
		PlanID:             plan.ID,
		PlanName:           plan.Name,
		PlanType:           plan.PlanType,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart.Format(time.RFC3339),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd.Format(time.RFC3339),
		SelectedSubjectID:  sub.SelectedSubjectID,
		AllowUpload:        plan.AllowUpload,
		AllowAI:            plan.AllowAI,
		AllowLibrary:       plan.AllowLibrary,
	}, nil
}

// ListPlans returns the public catalogue.
func (s *SubscriptionService) ListPlans() ([]*model.SubscriptionPlan, error) {
	return s.planRepo.ListActive()
}

func (s *SubscriptionService) enrollFreeDefault(userID int64) (*model.UserSubscription, error) {
	free, err := s.planRepo.GetByType(model.PlanFree)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub := &model.UserSubscription{
		UserID:             userID,
		PlanID:             free.ID,
		Status:             model.SubscriptionActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 0, freePlanPeriodDays),
	}
	if err := s.subscriptionRepo.Create(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// buildCheckoutForm assembles the signed PayFast redirect fields. The
// custom_str fields correlate the eventual ITN back to our records.
func (s *SubscriptionService) buildCheckoutForm(userID int64, plan *model.SubscriptionPlan, sub *model.UserSubscription, txn *model.PaymentTransaction) *dto.CheckoutForm {
	pf := s.cfg.PayFast
	fields := map[string]string{
		"merchant_id":  pf.MerchantID,
		"merchant_key": pf.MerchantKey,
		"return_url":   pf.ReturnURL,
		"cancel_url":   pf.CancelURL,
		"notify_url":   pf.NotifyURL,
		"m_payment_id": txn.MerchantReference,
		"amount":       formatCents(plan.PriceCents),
		"item_name":    plan.Name + " Subscription",
		"custom_str1":  strconv.FormatInt(userID, 10),
		"custom_str2":  strconv.FormatInt(plan.ID, 10),
		"custom_str3":  strconv.FormatInt(sub.ID, 10),
	}
	fields[payfast.SignatureField] = payfast.Sign(fields, pf.Passphrase)

	return &dto.CheckoutForm{
		ProcessURL: pf.ProcessURL,
		Fields:     fields,
	}
}

func generateMerchantReference() string {
	buf := make([]byte, 6)
	rand.Read(buf)
	return fmt.Sprintf("SUB-%s-%s", time.Now().Format("20060102150405"), hex.EncodeToString(buf))
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
