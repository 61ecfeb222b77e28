package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
)

// QuotaRepository owns UsageQuota rows. Every mutation is a single
// conditional statement so concurrent consumers can never both pass a
// limit check: the row lock taken by the UPDATE serializes them.
type QuotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

func (r *QuotaRepository) Get(userID, subjectID int64) (*model.UsageQuota, error) {
	var quota model.UsageQuota
	err := r.db.Where("user_id = ? AND subject_id = ?", userID, subjectID).First(&quota).Error
	if err != nil {
		return nil, err
	}
	return &quota, nil
}

func (r *QuotaRepository) ListByUser(userID int64) ([]*model.UsageQuota, error) {
	var quotas []*model.UsageQuota
	err := r.db.Where("user_id = ?", userID).Find(&quotas).Error
	return quotas, err
}

// IncrementIfBelow adds one consumption to the row for (user, subject) iff
// the stored period matches and the count is still under limit. Returns
// false when no row matched, which means: no row yet, stale period, or
// limit reached.
func (r *QuotaRepository) IncrementIfBelow(userID, subjectID int64, periodKey string, limit int) (bool, error) {
	res := r.db.Model(&model.UsageQuota{}).
		Where("user_id = ? AND subject_id = ? AND period_key = ? AND used < ?",
			userID, subjectID, periodKey, limit).
		Update("used", gorm.Expr("used + 1"))
	return res.RowsAffected == 1, res.Error
}

// CreateFirstUse inserts the lazily-created row holding one consumption.
// The unique index on (user_id, subject_id) makes concurrent first uses
// race safely: exactly one insert wins and the losers fall back to
// IncrementIfBelow.
func (r *QuotaRepository) CreateFirstUse(userID, subjectID int64, periodKey string) (bool, error) {
	quota := &model.UsageQuota{
		UserID:    userID,
		SubjectID: subjectID,
		PeriodKey: periodKey,
		Used:      1,
	}
	err := r.db.Create(quota).Error
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RolloverAndUse resets a stale-period row to the new period with one
// consumption. The period predicate keeps concurrent rollovers idempotent:
// only the first matches, the rest fall back to IncrementIfBelow.
func (r *QuotaRepository) RolloverAndUse(userID, subjectID int64, periodKey string) (bool, error) {
	res := r.db.Model(&model.UsageQuota{}).
		Where("user_id = ? AND subject_id = ? AND period_key <> ?", userID, subjectID, periodKey).
		Updates(map[string]interface{}{
			"period_key": periodKey,
			"used":       1,
		})
	return res.RowsAffected == 1, res.Error
}

// UsedThisPeriod reads the consumed count for display. A missing row or a
// stale period both read as zero.
func (r *QuotaRepository) UsedThisPeriod(userID, subjectID int64, periodKey string) (int, error) {
	quota, err := r.Get(userID, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if quota.PeriodKey != periodKey {
		return 0, nil
	}
	return quota.Used, nil
}
