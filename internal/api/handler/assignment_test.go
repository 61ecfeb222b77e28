package handler

import (
	"context"
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/model/dto"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/response"
	"github.com/stanleykwembe/brilltech-mega/internal/repository"
	"github.com/stanleykwembe/brilltech-mega/internal/service"
	"github.com/stanleykwembe/brilltech-mega/internal/testutil"
)

type staticGenerator struct {
	content string
}

func (g *staticGenerator) Complete(_ context.Context, _ string) (string, error) {
	return g.content, nil
}

func setupAssignmentHandler(t *testing.T) (*AssignmentHandler, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	subscriptionService := service.NewSubscriptionService(
		repository.NewSubscriptionRepository(db),
		repository.NewPlanRepository(db, nil),
		repository.NewTransactionRepository(db),
		testAppConfig(),
		zap.NewNop(),
	)
	quotaService := service.NewQuotaService(
		repository.NewQuotaRepository(db),
		repository.NewSubjectRepository(db),
		zap.NewNop(),
	)
	gateService := service.NewGateService(subscriptionService, quotaService, zap.NewNop())
	assignmentService := service.NewAssignmentService(
		repository.NewAssignmentRepository(db),
		repository.NewSubjectRepository(db),
		subscriptionService,
		quotaService,
		gateService,
		&staticGenerator{content: `[{"question":"Q1","answer":"A1"}]`},
		zap.NewNop(),
	)

	return NewAssignmentHandler(assignmentService), db
}

func assignmentRequest(subjectID int64) dto.GenerateAssignmentRequest {
	return dto.GenerateAssignmentRequest{
		SubjectID:    subjectID,
		Title:        "Term 3 Algebra Revision",
		GradeLevel:   10,
		QuestionType: "MCQ",
		Count:        5,
	}
}

func TestAssignmentHandler_Generate(t *testing.T) {
	handler, db := setupAssignmentHandler(t)

	user := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db, testutil.WithGenerationLimit(30))
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	router := gin.New()
	router.Use(mockAuth(user.ID))
	router.POST("/assignments/generate", handler.Generate)

	w := performRequest(router, "POST", "/assignments/generate", assignmentRequest(subject.ID))
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotZero(t, data["assignment_id"])
	assert.Equal(t, float64(29), data["quota_remaining"])
}

func TestAssignmentHandler_Generate_QuotaExhausted(t *testing.T) {
	handler, db := setupAssignmentHandler(t)

	user := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db, testutil.WithGenerationLimit(1))
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	router := gin.New()
	router.Use(mockAuth(user.ID))
	router.POST("/assignments/generate", handler.Generate)

	w := performRequest(router, "POST", "/assignments/generate", assignmentRequest(subject.ID))
	require.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	w = performRequest(router, "POST", "/assignments/generate", assignmentRequest(subject.ID))
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeQuotaExceeded, resp.Code)
}

func TestAssignmentHandler_Generate_FeatureNotOnPlan(t *testing.T) {
	handler, db := setupAssignmentHandler(t)

	user := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db, testutil.WithFeatures(true, false, true))
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	router := gin.New()
	router.Use(mockAuth(user.ID))
	router.POST("/assignments/generate", handler.Generate)

	w := performRequest(router, "POST", "/assignments/generate", assignmentRequest(subject.ID))
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeUpgradeRequired, resp.Code)
}

func TestAssignmentHandler_Generate_UnknownSubject(t *testing.T) {
	handler, db := setupAssignmentHandler(t)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	router := gin.New()
	router.Use(mockAuth(user.ID))
	router.POST("/assignments/generate", handler.Generate)

	w := performRequest(router, "POST", "/assignments/generate", assignmentRequest(424242))
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestAssignmentHandler_Generate_InvalidRequest(t *testing.T) {
	handler, db := setupAssignmentHandler(t)

	user := testutil.TestUser(t, db)

	router := gin.New()
	router.Use(mockAuth(user.ID))
	router.POST("/assignments/generate", handler.Generate)

	w := performRequest(router, "POST", "/assignments/generate", map[string]string{"title": "no subject"})
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestAssignmentHandler_Get_NotOwned(t *testing.T) {
	handler, db := setupAssignmentHandler(t)

	owner := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db)
	testutil.TestSubscription(t, db, owner.ID, plan.ID)

	ownerRouter := gin.New()
	ownerRouter.Use(mockAuth(owner.ID))
	ownerRouter.POST("/assignments/generate", handler.Generate)

	w := performRequest(ownerRouter, "POST", "/assignments/generate", assignmentRequest(subject.ID))
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	data := resp.Data.(map[string]interface{})
	assignmentID := int64(data["assignment_id"].(float64))

	otherRouter := gin.New()
	otherRouter.Use(mockAuth(other.ID))
	otherRouter.GET("/assignments/:id", handler.Get)

	w = performRequest(otherRouter, "GET", fmt.Sprintf("/assignments/%d", assignmentID), nil)
	resp = parseResponse(t, w)

	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestAssignmentHandler_List(t *testing.T) {
	handler, db := setupAssignmentHandler(t)

	user := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db)
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	router := gin.New()
	router.Use(mockAuth(user.ID))
	router.POST("/assignments/generate", handler.Generate)
	router.GET("/assignments", handler.List)

	for i := 0; i < 3; i++ {
		w := performRequest(router, "POST", "/assignments/generate", assignmentRequest(subject.ID))
		require.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)
	}

	w := performRequest(router, "GET", "/assignments?page=1&page_size=2", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeSuccess, resp.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), data["total"])
	items, ok := data["items"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 2)
}
