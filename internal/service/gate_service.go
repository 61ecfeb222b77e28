package service

import (
	"go.uber.org/zap"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
)

// Gated features. Each maps to a boolean flag on the plan; AI generation is
// additionally metered by the quota ledger.
const (
	FeatureUpload  = "upload"
	FeatureAI      = "ai"
	FeatureLibrary = "library"
)

// Denial reasons returned alongside allowed=false.
const (
	ReasonAllowed             = "allowed"
	ReasonUnknownFeature      = "unknown_feature"
	ReasonNoSuchFeatureOnPlan = "feature_not_in_plan"
	ReasonSubscriptionExpired = "subscription_expired"
	ReasonQuotaExhausted      = "quota_exhausted"
	ReasonSubjectNotPermitted = "subject_not_permitted"
)

// GateDecision is the answer to a feature check. Remaining is only
// meaningful for metered features; -1 means unlimited.
type GateDecision struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason"`
	Remaining int    `json:"remaining,omitempty"`
}

// GateService answers "may this user use this feature right now". It is a
// read-only check; consuming quota is the caller's separate, atomic step.
type GateService struct {
	subscriptionSvc *SubscriptionService
	quotaSvc        *QuotaService
	logger          *zap.Logger
}

func NewGateService(subscriptionSvc *SubscriptionService, quotaSvc *QuotaService, logger *zap.Logger) *GateService {
	return &GateService{
		subscriptionSvc: subscriptionSvc,
		quotaSvc:        quotaSvc,
		logger:          logger,
	}
}

// CanUse evaluates the gate sequence for a feature: entitlement, plan flag,
// subject restriction, then quota. The first failing check names the reason.
func (s *GateService) CanUse(userID int64, feature string, subjectID *int64) (*GateDecision, error) {
	plan, sub, err := s.subscriptionSvc.CurrentPlan(userID)
	if err != nil {
		return nil, err
	}

	lapsed := sub.Status == model.SubscriptionExpired ||
		(sub.Status == model.SubscriptionCancelled && !sub.EntitledAt(s.subscriptionSvc.now()))

	flag, ok := planFlag(plan, feature)
	if !ok {
		return &GateDecision{Reason: ReasonUnknownFeature}, nil
	}
	if !flag {
		reason := ReasonNoSuchFeatureOnPlan
		if lapsed {
			// The plan that used to carry the feature has lapsed; name the
			// real cause so clients can prompt a renewal instead of an upgrade.
			reason = ReasonSubscriptionExpired
		}
		return &GateDecision{Reason: reason}, nil
	}

	if subjectID != nil && !subjectPermitted(plan, sub, *subjectID) {
		return &GateDecision{Reason: ReasonSubjectNotPermitted}, nil
	}

	if feature != FeatureAI {
		return &GateDecision{Allowed: true, Reason: ReasonAllowed}, nil
	}

	remaining, err := s.remainingForUser(userID, subjectID, plan, sub)
	if err != nil {
		return nil, err
	}
	if remaining == 0 {
		return &GateDecision{Reason: ReasonQuotaExhausted}, nil
	}
	return &GateDecision{Allowed: true, Reason: ReasonAllowed, Remaining: remaining}, nil
}

func (s *GateService) remainingForUser(userID int64, subjectID *int64, plan *model.SubscriptionPlan, sub *model.UserSubscription) (int, error) {
	if plan.MonthlyGenerationLimit == model.Unlimited {
		return model.Unlimited, nil
	}
	var subject int64
	if subjectID != nil {
		subject = *subjectID
	}
	// Usage is metered per billing period, keyed off the subscription's
	// period start, not the calendar month of the wall clock.
	return s.quotaSvc.Remaining(userID, subject, model.PeriodKeyFor(sub.CurrentPeriodStart), plan.MonthlyGenerationLimit)
}

func planFlag(plan *model.SubscriptionPlan, feature string) (bool, bool) {
	switch feature {
	case FeatureUpload:
		return plan.AllowUpload, true
	case FeatureAI:
		return plan.AllowAI, true
	case FeatureLibrary:
		return plan.AllowLibrary, true
	default:
		return false, false
	}
}

// subjectPermitted enforces the single-subject restriction carried by lower
// paid tiers. Unlimited plans (count -1) cover every subject.
func subjectPermitted(plan *model.SubscriptionPlan, sub *model.UserSubscription, subjectID int64) bool {
	if plan.AllowedSubjectCount == model.Unlimited {
		return true
	}
	if plan.AllowedSubjectCount == 0 {
		return false
	}
	if sub.SelectedSubjectID == nil {
		return false
	}
	return *sub.SelectedSubjectID == subjectID
}
