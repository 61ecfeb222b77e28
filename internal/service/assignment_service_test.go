package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/model/dto"
	"github.com/stanleykwembe/brilltech-mega/internal/repository"
	"github.com/stanleykwembe/brilltech-mega/internal/testutil"
)

type cannedGenerator struct {
	content string
	err     error
	prompts []string
}

func (g *cannedGenerator) Complete(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.content, nil
}

func setupAssignmentService(t *testing.T, gen ContentGenerator) (*AssignmentService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	subSvc := NewSubscriptionService(
		repository.NewSubscriptionRepository(db),
		repository.NewPlanRepository(db, nil),
		repository.NewTransactionRepository(db),
		testConfig(),
		zap.NewNop(),
	)
	quotaSvc := NewQuotaService(
		repository.NewQuotaRepository(db),
		repository.NewSubjectRepository(db),
		zap.NewNop(),
	)
	gateSvc := NewGateService(subSvc, quotaSvc, zap.NewNop())

	svc := NewAssignmentService(
		repository.NewAssignmentRepository(db),
		repository.NewSubjectRepository(db),
		subSvc,
		quotaSvc,
		gateSvc,
		gen,
		zap.NewNop(),
	)
	return svc, db
}

func generateRequest(subjectID int64) *dto.GenerateAssignmentRequest {
	return &dto.GenerateAssignmentRequest{
		SubjectID:    subjectID,
		Title:        "Term 3 Algebra Revision",
		GradeLevel:   10,
		QuestionType: "MCQ",
		Topic:        "Quadratic equations",
		Count:        5,
	}
}

func TestAssignmentService_Generate(t *testing.T) {
	gen := &cannedGenerator{content: `[{"question":"Solve x^2=4","answer":"x=±2"}]`}
	svc, db := setupAssignmentService(t, gen)

	user := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db, testutil.WithGenerationLimit(3))
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	resp, err := svc.Generate(context.Background(), user.ID, generateRequest(subject.ID))
	require.NoError(t, err)
	assert.NotZero(t, resp.AssignmentID)
	assert.Equal(t, gen.content, resp.Content)
	assert.Equal(t, 2, resp.QuotaRemaining)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Mathematics")
	assert.Contains(t, gen.prompts[0], "Quadratic equations")

	stored, err := svc.Get(user.ID, resp.AssignmentID)
	require.NoError(t, err)
	assert.Equal(t, "Term 3 Algebra Revision", stored.Title)
}

func TestAssignmentService_Generate_QuotaExhausted(t *testing.T) {
	gen := &cannedGenerator{content: "[]"}
	svc, db := setupAssignmentService(t, gen)

	user := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db, testutil.WithGenerationLimit(1))
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	_, err := svc.Generate(context.Background(), user.ID, generateRequest(subject.ID))
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), user.ID, generateRequest(subject.ID))
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	// The model was only called for the approved attempt.
	assert.Len(t, gen.prompts, 1)
}

func TestAssignmentService_Generate_QuotaFollowsBillingPeriod(t *testing.T) {
	gen := &cannedGenerator{content: "[]"}
	svc, db := setupAssignmentService(t, gen)

	user := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db, testutil.WithGenerationLimit(1))

	// A mid-month billing anchor: the period runs 5 March to 5 April.
	anchor := time.Date(2026, time.March, 5, 8, 0, 0, 0, time.UTC)
	sub := testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithPeriod(anchor, anchor.AddDate(0, 0, 31)))

	clock := anchor.AddDate(0, 0, 15) // 20 March
	svc.subscriptionSvc.now = func() time.Time { return clock }

	_, err := svc.Generate(context.Background(), user.ID, generateRequest(subject.ID))
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), user.ID, generateRequest(subject.ID))
	require.ErrorIs(t, err, ErrQuotaExhausted)

	// The calendar flips to April mid-period; the quota must not reset
	// until the billing period itself renews.
	clock = time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	_, err = svc.Generate(context.Background(), user.ID, generateRequest(subject.ID))
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	// A renewal starts a fresh period and with it a fresh quota bucket.
	clock = time.Date(2026, time.April, 4, 8, 0, 0, 0, time.UTC)
	require.NoError(t, svc.subscriptionSvc.Activate(sub.ID, 31))

	_, err = svc.Generate(context.Background(), user.ID, generateRequest(subject.ID))
	require.NoError(t, err)
	assert.Len(t, gen.prompts, 2)
}

func TestAssignmentService_Generate_FeatureNotAllowed(t *testing.T) {
	gen := &cannedGenerator{content: "[]"}
	svc, db := setupAssignmentService(t, gen)

	user := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db, testutil.WithFeatures(true, false, true))
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	_, err := svc.Generate(context.Background(), user.ID, generateRequest(subject.ID))
	assert.ErrorIs(t, err, ErrFeatureNotAllowed)
	assert.Empty(t, gen.prompts)
}

func TestAssignmentService_Generate_SubjectNotPermitted(t *testing.T) {
	gen := &cannedGenerator{content: "[]"}
	svc, db := setupAssignmentService(t, gen)

	user := testutil.TestUser(t, db)
	maths := testutil.TestSubject(t, db, "Mathematics")
	physics := testutil.TestSubject(t, db, "Physical Sciences")
	plan := testutil.TestPlan(t, db, testutil.WithSubjectCount(1))
	testutil.TestSubscription(t, db, user.ID, plan.ID, testutil.WithSelectedSubject(maths.ID))

	_, err := svc.Generate(context.Background(), user.ID, generateRequest(physics.ID))
	assert.ErrorIs(t, err, ErrFeatureNotAllowed)
}

func TestAssignmentService_Generate_UnknownSubject(t *testing.T) {
	gen := &cannedGenerator{content: "[]"}
	svc, db := setupAssignmentService(t, gen)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	_, err := svc.Generate(context.Background(), user.ID, generateRequest(424242))
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestAssignmentService_Generate_GeneratorFailure(t *testing.T) {
	gen := &cannedGenerator{err: errors.New("model timeout")}
	svc, db := setupAssignmentService(t, gen)

	user := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db)
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	_, err := svc.Generate(context.Background(), user.ID, generateRequest(subject.ID))
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestAssignmentService_Get_ScopedToOwner(t *testing.T) {
	gen := &cannedGenerator{content: "[]"}
	svc, db := setupAssignmentService(t, gen)

	owner := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db)
	testutil.TestSubscription(t, db, owner.ID, plan.ID)

	resp, err := svc.Generate(context.Background(), owner.ID, generateRequest(subject.ID))
	require.NoError(t, err)

	_, err = svc.Get(other.ID, resp.AssignmentID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAssignmentService_List(t *testing.T) {
	gen := &cannedGenerator{content: "[]"}
	svc, db := setupAssignmentService(t, gen)

	user := testutil.TestUser(t, db)
	subject := testutil.TestSubject(t, db, "Mathematics")
	plan := testutil.TestPlan(t, db)
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	for i := 0; i < 3; i++ {
		_, err := svc.Generate(context.Background(), user.ID, generateRequest(subject.ID))
		require.NoError(t, err)
	}

	items, total, err := svc.List(user.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 2)
}
