package dto

// SubjectQuota reports remaining generations for one subject this period.
type SubjectQuota struct {
	SubjectID   int64  `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Limit       int    `json:"limit"` // -1 = unlimited
	Used        int    `json:"used"`
	Remaining   int    `json:"remaining"` // -1 = unlimited
}

// QuotaInfo is the per-user quota summary.
type QuotaInfo struct {
	PlanType  string         `json:"plan_type"`
	PeriodKey string         `json:"period_key"`
	Subjects  []SubjectQuota `json:"subjects"`
}
