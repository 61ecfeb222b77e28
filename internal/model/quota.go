package model

import (
	"time"
)

// UsageQuota counts AI generations consumed per user, subject and billing
// period. A row is created lazily on first consumption and reset in place
// when the period key advances. All mutation goes through the quota
// repository's conditional updates.
type UsageQuota struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_quota_user_subject" json:"user_id"`
	SubjectID int64     `gorm:"not null;uniqueIndex:idx_quota_user_subject" json:"subject_id"`
	PeriodKey string    `gorm:"size:20;not null" json:"period_key"`
	Used      int       `gorm:"default:0" json:"used"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UsageQuota) TableName() string {
	return "usage_quotas"
}

// PeriodKeyFor derives the quota bucket key from a billing period start.
func PeriodKeyFor(periodStart time.Time) string {
	return periodStart.UTC().Format("2006-01")
}
