package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/config"
	"github.com/stanleykwembe/brilltech-mega/internal/model"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/payfast"
	"github.com/stanleykwembe/brilltech-mega/internal/repository"
)

// Notification outcomes. The HTTP layer always answers 200 regardless;
// these drive logging and tests.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

// paidPeriodDays is the fallback entitlement window when the plan does not
// declare its own period.
const paidPeriodDays = 31

// PaymentService verifies PayFast ITN callbacks and settles them exactly
// once. Every gate failure is logged with enough detail to reconstruct the
// decision; the passphrase never reaches a log line.
type PaymentService struct {
	transactionRepo *repository.TransactionRepository
	subscriptionSvc *SubscriptionService
	client          *payfast.Client
	cfg             *config.Config
	logger          *zap.Logger
	now             func() time.Time
}

func NewPaymentService(
	transactionRepo *repository.TransactionRepository,
	subscriptionSvc *SubscriptionService,
	client *payfast.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		transactionRepo: transactionRepo,
		subscriptionSvc: subscriptionSvc,
		client:          client,
		cfg:             cfg,
		logger:          logger,
		now:             time.Now,
	}
}

// HandleNotification runs the full ITN gate sequence over a raw callback
// body. It never returns an error to the transport: PayFast retries on
// non-200, and a rejected notification must not be retried into success.
func (s *PaymentService) HandleNotification(ctx context.Context, raw []byte, sourceIP string) string {
	digest := sha256.Sum256(raw)
	log := s.logger.With(
		zap.String("payload_sha256", hex.EncodeToString(digest[:])),
		zap.String("source_ip", sourceIP),
	)

	if !s.client.SourceAllowed(sourceIP) {
		log.Warn("itn rejected: source address not allowed")
		return OutcomeRejected
	}

	n, err := payfast.ParseNotification(raw)
	if err != nil {
		log.Warn("itn rejected: unparseable payload", zap.Error(err))
		return OutcomeRejected
	}
	log = log.With(
		zap.String("merchant_reference", n.MerchantReference()),
		zap.String("gateway_transaction_id", n.GatewayTransactionID()),
		zap.String("payment_status", n.PaymentStatus()),
	)

	if !n.VerifySignature(s.cfg.PayFast.Passphrase) {
		log.Warn("itn rejected: signature mismatch")
		return OutcomeRejected
	}

	if n.MerchantID() != s.cfg.PayFast.MerchantID {
		log.Warn("itn rejected: merchant id mismatch", zap.String("merchant_id", n.MerchantID()))
		return OutcomeRejected
	}

	if !s.client.Confirm(ctx, raw) {
		log.Warn("itn rejected: server confirmation failed")
		return OutcomeRejected
	}

	txn, err := s.transactionRepo.GetByMerchantReference(n.MerchantReference())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("itn rejected: unknown merchant reference")
		} else {
			log.Error("itn lookup failed", zap.Error(err))
		}
		return OutcomeRejected
	}

	grossCents, err := n.AmountGrossCents()
	if err != nil {
		log.Warn("itn rejected: malformed amount", zap.Error(err))
		return OutcomeRejected
	}
	if delta := grossCents - txn.AmountGrossCents; delta > s.cfg.PayFast.AmountToleranceCents ||
		delta < -s.cfg.PayFast.AmountToleranceCents {
		log.Warn("itn rejected: amount mismatch",
			zap.Int64("expected_cents", txn.AmountGrossCents),
			zap.Int64("received_cents", grossCents),
		)
		return OutcomeRejected
	}

	status := model.TransactionConfirmed
	if n.PaymentStatus() != payfast.StatusComplete {
		status = model.TransactionFailed
	}

	feeCents, _ := n.AmountFeeCents()
	netCents, _ := n.AmountNetCents()

	err = s.transactionRepo.Settle(txn.MerchantReference, repository.TerminalUpdate{
		GatewayTransactionID: n.GatewayTransactionID(),
		Status:               status,
		AmountGrossCents:     grossCents,
		AmountFeeCents:       feeCents,
		AmountNetCents:       netCents,
		RawPayload:           raw,
		ConfirmedAt:          s.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTransaction) {
			log.Info("itn replay ignored")
			return OutcomeDuplicate
		}
		log.Error("itn settle failed", zap.Error(err))
		return OutcomeRejected
	}

	if status == model.TransactionFailed {
		log.Info("itn settled as failed, subscription untouched")
		return OutcomeApplied
	}

	periodDays := paidPeriodDays
	if plan, perr := s.subscriptionSvc.planRepo.GetByID(txn.PlanID); perr == nil && plan.PeriodDays > 0 {
		periodDays = plan.PeriodDays
	}

	if err := s.subscriptionSvc.Activate(txn.SubscriptionID, periodDays); err != nil {
		// The payment is settled; an activation race leaves the transaction
		// record authoritative for manual reconciliation.
		log.Error("itn settled but activation failed",
			zap.Int64("subscription_id", txn.SubscriptionID),
			zap.Error(err),
		)
		return OutcomeApplied
	}

	log.Info("itn applied",
		zap.Int64("subscription_id", txn.SubscriptionID),
		zap.Int64("amount_gross_cents", grossCents),
	)
	return OutcomeApplied
}
