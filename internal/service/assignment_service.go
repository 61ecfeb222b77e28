package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
	"github.com/stanleykwembe/brilltech-mega/internal/model/dto"
	"github.com/stanleykwembe/brilltech-mega/internal/repository"
)

var (
	ErrFeatureNotAllowed = errors.New("feature not available on current plan")
	ErrQuotaExhausted    = errors.New("monthly generation quota exhausted")
	ErrSubjectNotFound   = errors.New("subject not found")
	ErrGenerationFailed  = errors.New("assignment generation failed")
)

// ContentGenerator produces assignment content from a prompt. The HTTP LLM
// client satisfies it in production; tests plug in a canned implementation.
type ContentGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AssignmentService runs the gated generation flow: feature gate, atomic
// quota consume, generate, persist. Quota is charged before the model call
// so a crash can never hand out free generations; the spend is small enough
// that a failed call eating one unit is acceptable.
type AssignmentService struct {
	assignmentRepo  *repository.AssignmentRepository
	subjectRepo     *repository.SubjectRepository
	subscriptionSvc *SubscriptionService
	quotaSvc        *QuotaService
	gateSvc         *GateService
	generator       ContentGenerator
	logger          *zap.Logger
}

func NewAssignmentService(
	assignmentRepo *repository.AssignmentRepository,
	subjectRepo *repository.SubjectRepository,
	subscriptionSvc *SubscriptionService,
	quotaSvc *QuotaService,
	gateSvc *GateService,
	generator ContentGenerator,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo:  assignmentRepo,
		subjectRepo:     subjectRepo,
		subscriptionSvc: subscriptionSvc,
		quotaSvc:        quotaSvc,
		gateSvc:         gateSvc,
		generator:       generator,
		logger:          logger,
	}
}

// Generate creates an AI assignment if the user's plan and remaining quota
// allow it.
func (s *AssignmentService) Generate(ctx context.Context, userID int64, req *dto.GenerateAssignmentRequest) (*dto.GenerateAssignmentResponse, error) {
	subject, err := s.subjectRepo.GetByID(req.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}

	decision, err := s.gateSvc.CanUse(userID, FeatureAI, &req.SubjectID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		switch decision.Reason {
		case ReasonQuotaExhausted:
			return nil, ErrQuotaExhausted
		default:
			return nil, ErrFeatureNotAllowed
		}
	}

	plan, sub, err := s.subscriptionSvc.CurrentPlan(userID)
	if err != nil {
		return nil, err
	}

	// The quota ledger is keyed by the subscription's billing period, so a
	// calendar month rolling over mid-period never hands out a fresh quota.
	quota, err := s.quotaSvc.TryConsume(userID, req.SubjectID,
		model.PeriodKeyFor(sub.CurrentPeriodStart), plan.MonthlyGenerationLimit)
	if err != nil {
		return nil, err
	}
	if !quota.Allowed {
		return nil, ErrQuotaExhausted
	}

	content, err := s.generator.Complete(ctx, buildPrompt(subject.Name, req))
	if err != nil {
		s.logger.Error("assignment generation failed",
			zap.Int64("user_id", userID),
			zap.Int64("subject_id", req.SubjectID),
			zap.Error(err),
		)
		return nil, ErrGenerationFailed
	}

	assignment := &model.GeneratedAssignment{
		UserID:       userID,
		SubjectID:    req.SubjectID,
		Title:        req.Title,
		GradeLevel:   req.GradeLevel,
		QuestionType: req.QuestionType,
		Content:      content,
	}
	if err := s.assignmentRepo.Create(assignment); err != nil {
		return nil, err
	}

	s.logger.Info("assignment generated",
		zap.Int64("user_id", userID),
		zap.Int64("assignment_id", assignment.ID),
		zap.Int("quota_remaining", quota.Remaining),
	)

	return &dto.GenerateAssignmentResponse{
		AssignmentID:   assignment.ID,
		Content:        content,
		QuotaRemaining: quota.Remaining,
	}, nil
}

// List returns the user's generated assignments, newest first.
func (s *AssignmentService) List(userID int64, page, pageSize int) ([]*model.GeneratedAssignment, int64, error) {
	return s.assignmentRepo.ListByUser(userID, page, pageSize)
}

// Get returns one assignment, scoped to its owner.
func (s *AssignmentService) Get(userID, assignmentID int64) (*model.GeneratedAssignment, error) {
	assignment, err := s.assignmentRepo.GetByID(assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func buildPrompt(subjectName string, req *dto.GenerateAssignmentRequest) string {
	count := req.Count
	if count == 0 {
		count = 10
	}
	prompt := fmt.Sprintf(
		"Generate %d %s questions for a grade %d %s assignment titled %q.",
		count, req.QuestionType, req.GradeLevel, subjectName, req.Title,
	)
	if req.Topic != "" {
		prompt += fmt.Sprintf(" Focus on the topic: %s.", req.Topic)
	}
	prompt += " Return the questions as a JSON array of objects with fields \"question\", \"options\" (MCQ only) and \"answer\"."
	return prompt
}
