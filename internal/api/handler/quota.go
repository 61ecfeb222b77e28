package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/stanleykwembe/brilltech-mega/internal/api/middleware"
	"github.com/stanleykwembe/brilltech-mega/internal/model"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/response"
	"github.com/stanleykwembe/brilltech-mega/internal/service"
)

type QuotaHandler struct {
	quotaService        *service.QuotaService
	subscriptionService *service.SubscriptionService
	gateService         *service.GateService
}

func NewQuotaHandler(
	quotaService *service.QuotaService,
	subscriptionService *service.SubscriptionService,
	gateService *service.GateService,
) *QuotaHandler {
	return &QuotaHandler{
		quotaService:        quotaService,
		subscriptionService: subscriptionService,
		gateService:         gateService,
	}
}

// Summary returns the per-subject quota picture for the current period.
// GET /api/v1/quota
func (h *QuotaHandler) Summary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	plan, sub, err := h.subscriptionService.CurrentPlan(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	info, err := h.quotaService.Summary(userID, model.PeriodKeyFor(sub.CurrentPeriodStart), plan, sub.SelectedSubjectID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, info)
}

// CheckFeature answers whether a feature is usable right now.
// GET /api/v1/quota/check?feature=ai&subject_id=3
func (h *QuotaHandler) CheckFeature(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	feature := c.Query("feature")
	if feature == "" {
		response.ParamError(c, "feature is required")
		return
	}

	subjectID, err := optionalInt64Query(c, "subject_id")
	if err != nil {
		response.ParamError(c, "invalid subject_id")
		return
	}

	decision, err := h.gateService.CanUse(userID, feature, subjectID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, decision)
}
