package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/stanleykwembe/brilltech-mega/internal/api/middleware"
	"github.com/stanleykwembe/brilltech-mega/internal/model/dto"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/response"
	"github.com/stanleykwembe/brilltech-mega/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// ListPlans returns the public plan catalogue.
// GET /api/v1/plans
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	plans, err := h.subscriptionService.ListPlans()
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, plans)
}

// Current returns the authenticated user's subscription.
// GET /api/v1/subscription
func (h *SubscriptionHandler) Current(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.subscriptionService.Info(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, info)
}

// Upgrade starts an enrollment on the requested plan.
// POST /api/v1/subscription/upgrade
func (h *SubscriptionHandler) Upgrade(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.subscriptionService.Enroll(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrPlanNotActive),
			errors.Is(err, service.ErrSubjectRequired):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrSubscriptionExists):
			response.DuplicateError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}

// Cancel schedules the current subscription's downgrade at period end.
// POST /api/v1/subscription/cancel
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	if err := h.subscriptionService.Cancel(userID); err != nil {
		switch {
		case errors.Is(err, service.ErrNoSubscription):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrInvalidTransition):
			response.ParamError(c, "subscription cannot be cancelled in its current state")
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "subscription cancelled", nil)
}
