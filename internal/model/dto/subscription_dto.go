package dto

// UpgradeRequest starts a paid enrollment.
type UpgradeRequest struct {
	PlanID int64 `json:"plan_id" binding:"required"`
	// SubjectID selects the covered subject for subject-restricted plans.
	SubjectID *int64 `json:"subject_id,omitempty"`
}

// CheckoutForm carries the signed PayFast redirect fields. The frontend posts
// them to ProcessURL as a plain HTML form.
type CheckoutForm struct {
	ProcessURL string            `json:"process_url"`
	Fields     map[string]string `json:"fields"`
}

// UpgradeResponse returns the pending subscription plus checkout data.
type UpgradeResponse struct {
	SubscriptionID int64         `json:"subscription_id"`
	Checkout       *CheckoutForm `json:"checkout"`
}

// SubscriptionInfo is the current-subscription view.
type SubscriptionInfo struct {
	ID                 int64  `json:"id"`
	PlanID             int64  `json:"plan_id"`
	PlanName           string `json:"plan_name"`
	PlanType           string `json:"plan_type"`
	Status             string `json:"status"`
	CurrentPeriodStart string `json:"current_period_start"`
	CurrentPeriodEnd   string `json:"current_period_end"`
	SelectedSubjectID  *int64 `json:"selected_subject_id,omitempty"`
	AllowUpload        bool   `json:"allow_upload"`
	AllowAI            bool   `json:"allow_ai"`
	AllowLibrary       bool   `json:"allow_library"`
}
