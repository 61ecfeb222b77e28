package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/api/middleware"
	"github.com/stanleykwembe/brilltech-mega/internal/model/dto"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/response"
	"github.com/stanleykwembe/brilltech-mega/internal/service"
)

type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
	}
}

// Generate runs a gated AI assignment generation.
// POST /api/v1/assignments/generate
func (h *AssignmentHandler) Generate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.GenerateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.assignmentService.Generate(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubjectNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrQuotaExhausted):
			response.QuotaError(c, err.Error())
		case errors.Is(err, service.ErrFeatureNotAllowed):
			response.UpgradeError(c, err.Error())
		case errors.Is(err, service.ErrGenerationFailed):
			response.ServerError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}

// List returns the user's generated assignments.
// GET /api/v1/assignments
func (h *AssignmentHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.assignmentService.List(userID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get returns one assignment owned by the caller.
// GET /api/v1/assignments/:id
func (h *AssignmentHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	assignmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid assignment id")
		return
	}

	assignment, err := h.assignmentService.Get(userID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundError(c, "assignment not found")
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, assignment)
}
