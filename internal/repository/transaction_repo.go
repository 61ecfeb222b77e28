package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
)

// ErrDuplicateTransaction means the gateway transaction id already reached a
// terminal status; the caller must treat the notification as a replay.
var ErrDuplicateTransaction = errors.New("transaction already in terminal status")

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(txn *model.PaymentTransaction) error {
	return r.db.Create(txn).Error
}

func (r *TransactionRepository) GetByID(id int64) (*model.PaymentTransaction, error) {
	var txn model.PaymentTransaction
	err := r.db.Where("id = ?", id).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) GetByMerchantReference(ref string) (*model.PaymentTransaction, error) {
	var txn model.PaymentTransaction
	err := r.db.Where("merchant_reference = ?", ref).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) GetByGatewayID(gatewayID string) (*model.PaymentTransaction, error) {
	var txn model.PaymentTransaction
	err := r.db.Where("gateway_transaction_id = ?", gatewayID).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// TerminalUpdate carries the fields written when a transaction is settled.
type TerminalUpdate struct {
	GatewayTransactionID string
	Status               string // confirmed or failed
	AmountGrossCents     int64
	AmountFeeCents       int64
	AmountNetCents       int64
	RawPayload           []byte
	ConfirmedAt          time.Time
}

// Settle moves the initiated row for the merchant reference to a terminal
// status. The status predicate makes the check-then-set a single conditional
// statement, so two concurrent deliveries of the same notification settle
// exactly once: the loser sees ErrDuplicateTransaction. The unique index on
// gateway_transaction_id additionally rejects a replay that arrives under a
// different merchant reference.
func (r *TransactionRepository) Settle(merchantRef string, upd TerminalUpdate) error {
	res := r.db.Model(&model.PaymentTransaction{}).
		Where("merchant_reference = ? AND status = ?", merchantRef, model.TransactionInitiated).
		Updates(map[string]interface{}{
			"gateway_transaction_id": upd.GatewayTransactionID,
			"status":                 upd.Status,
			"amount_gross_cents":     upd.AmountGrossCents,
			"amount_fee_cents":       upd.AmountFeeCents,
			"amount_net_cents":       upd.AmountNetCents,
			"raw_payload":            upd.RawPayload,
			"confirmed_at":           upd.ConfirmedAt,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicateTransaction
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateTransaction
	}
	return nil
}

// isUniqueViolation detects duplicate-key errors across mysql and sqlite
// without binding to a driver error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || // mysql 1062
		strings.Contains(msg, "unique constraint")
}
