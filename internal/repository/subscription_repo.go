package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.UserSubscription) error {
	return r.db.Create(sub).Error
}

func (r *SubscriptionRepository) GetByID(id int64) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := r.db.Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetCurrentByUser returns the user's most recent subscription row that still
// matters for entitlement: a non-terminal row if one exists, otherwise the
// latest cancelled/expired row (cancelled rows grant features until period
// end). Rows are never hard-deleted, so ordering by id is stable.
func (r *SubscriptionRepository) GetCurrentByUser(userID int64) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := r.db.Where("user_id = ? AND status IN ?", userID,
		[]string{model.SubscriptionPending, model.SubscriptionActive}).
		Order("id DESC").First(&sub).Error
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = r.db.Where("user_id = ?", userID).Order("id DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetNonTerminalByUser returns the user's latest pending or active row, or
// gorm.ErrRecordNotFound when there is none.
func (r *SubscriptionRepository) GetNonTerminalByUser(userID int64) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := r.db.Where("user_id = ? AND status IN ?", userID,
		[]string{model.SubscriptionPending, model.SubscriptionActive}).
		Order("id DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ExpireOthers retires every other non-terminal row of the user, keeping only
// keepID. Activating a paid subscription supersedes the free row this way.
func (r *SubscriptionRepository) ExpireOthers(userID, keepID int64) (int64, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("user_id = ? AND id <> ? AND status IN ?", userID, keepID,
			[]string{model.SubscriptionPending, model.SubscriptionActive}).
		Update("status", model.SubscriptionExpired)
	return res.RowsAffected, res.Error
}

func (r *SubscriptionRepository) Update(sub *model.UserSubscription) error {
	return r.db.Save(sub).Error
}

// Activate moves a pending or active row into a fresh active period in one
// conditional statement; the returned flag is false when the row was in
// neither state (illegal transition).
func (r *SubscriptionRepository) Activate(id int64, periodStart, periodEnd time.Time) (bool, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("id = ? AND status IN ?", id,
			[]string{model.SubscriptionPending, model.SubscriptionActive}).
		Updates(map[string]interface{}{
			"status":               model.SubscriptionActive,
			"current_period_start": periodStart,
			"current_period_end":   periodEnd,
			"cancelled_at":         nil,
		})
	return res.RowsAffected == 1, res.Error
}

// Cancel flips an active row to cancelled. Entitlement until period end is
// handled at read time, not here.
func (r *SubscriptionRepository) Cancel(id int64, at time.Time) (bool, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("id = ? AND status = ?", id, model.SubscriptionActive).
		Updates(map[string]interface{}{
			"status":       model.SubscriptionCancelled,
			"cancelled_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

// ExpireOverdue flips every active row whose period has lapsed to expired.
// Cancelled rows stay cancelled; they simply stop granting features at
// period end. Used by the sweeper; the read path does the same lazily per
// user.
func (r *SubscriptionRepository) ExpireOverdue(now time.Time) (int64, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("status = ? AND current_period_end <= ?", model.SubscriptionActive, now).
		Update("status", model.SubscriptionExpired)
	return res.RowsAffected, res.Error
}

// ExpireIfOverdue lazily expires a single active row when its period has
// lapsed.
func (r *SubscriptionRepository) ExpireIfOverdue(id int64, now time.Time) (bool, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("id = ? AND status = ? AND current_period_end <= ?", id,
			model.SubscriptionActive, now).
		Update("status", model.SubscriptionExpired)
	return res.RowsAffected == 1, res.Error
}
