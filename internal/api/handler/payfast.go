package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stanleykwembe/brilltech-mega/internal/service"
)

type PayFastHandler struct {
	paymentService *service.PaymentService
	logger         *zap.Logger
}

func NewPayFastHandler(paymentService *service.PaymentService, logger *zap.Logger) *PayFastHandler {
	return &PayFastHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Notify receives PayFast ITN callbacks.
// POST /api/v1/payfast/notify
//
// The gateway only understands HTTP 200 with an empty body; anything else
// triggers its retry loop. All verification outcomes, including rejections,
// therefore answer 200 and the decision lives in our logs and records.
func (h *PayFastHandler) Notify(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("itn body read failed", zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	outcome := h.paymentService.HandleNotification(c.Request.Context(), raw, c.ClientIP())
	h.logger.Debug("itn processed", zap.String("outcome", outcome))

	c.Status(http.StatusOK)
}
