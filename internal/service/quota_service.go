package service

import (
	"go.uber.org/zap"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
	"github.com/stanleykwembe/brilltech-mega/internal/model/dto"
	"github.com/stanleykwembe/brilltech-mega/internal/repository"
)

// QuotaDecision is the outcome of a consumption attempt. Remaining is -1
// when the plan is unconstrained.
type QuotaDecision struct {
	Allowed   bool
	Remaining int
}

// QuotaService is the usage ledger. It hands every mutation to the quota
// repository's conditional statements, so concurrent TryConsume calls for
// the same key can never over-approve.
type QuotaService struct {
	quotaRepo   *repository.QuotaRepository
	subjectRepo *repository.SubjectRepository
	logger      *zap.Logger
}

func NewQuotaService(quotaRepo *repository.QuotaRepository, subjectRepo *repository.SubjectRepository, logger *zap.Logger) *QuotaService {
	return &QuotaService{
		quotaRepo:   quotaRepo,
		subjectRepo: subjectRepo,
		logger:      logger,
	}
}

// TryConsume charges one generation against (user, subject) for the given
// billing period. A denied attempt is not charged. limit -1 means
// unconstrained.
func (s *QuotaService) TryConsume(userID, subjectID int64, periodKey string, limit int) (QuotaDecision, error) {
	if limit < 0 {
		return QuotaDecision{Allowed: true, Remaining: -1}, nil
	}
	if limit == 0 {
		return QuotaDecision{Allowed: false, Remaining: 0}, nil
	}

	// Fast path: the row exists and carries the current period.
	ok, err := s.quotaRepo.IncrementIfBelow(userID, subjectID, periodKey, limit)
	if err != nil {
		return QuotaDecision{}, err
	}
	if ok {
		return s.decisionAfterUse(userID, subjectID, periodKey, limit)
	}

	// No match: first use in this period, a stale row, or an exhausted
	// quota. First use and rollover each claim the row with one conditional
	// statement; a racing loser retries the increment.
	created, err := s.quotaRepo.CreateFirstUse(userID, subjectID, periodKey)
	if err != nil {
		return QuotaDecision{}, err
	}
	if created {
		return QuotaDecision{Allowed: true, Remaining: limit - 1}, nil
	}

	rolled, err := s.quotaRepo.RolloverAndUse(userID, subjectID, periodKey)
	if err != nil {
		return QuotaDecision{}, err
	}
	if rolled {
		s.logger.Debug("quota period rolled over",
			zap.Int64("user_id", userID),
			zap.Int64("subject_id", subjectID),
			zap.String("period_key", periodKey),
		)
		return QuotaDecision{Allowed: true, Remaining: limit - 1}, nil
	}

	ok, err = s.quotaRepo.IncrementIfBelow(userID, subjectID, periodKey, limit)
	if err != nil {
		return QuotaDecision{}, err
	}
	if ok {
		return s.decisionAfterUse(userID, subjectID, periodKey, limit)
	}

	return QuotaDecision{Allowed: false, Remaining: 0}, nil
}

// Remaining reports what is left without consuming. -1 means unconstrained.
func (s *QuotaService) Remaining(userID, subjectID int64, periodKey string, limit int) (int, error) {
	if limit < 0 {
		return -1, nil
	}
	used, err := s.quotaRepo.UsedThisPeriod(userID, subjectID, periodKey)
	if err != nil {
		return 0, err
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Summary renders the per-subject quota picture for the given plan. A
// subject-restricted subscription only reports its selected subject.
func (s *QuotaService) Summary(userID int64, periodKey string, plan *model.SubscriptionPlan, selectedSubjectID *int64) (*dto.QuotaInfo, error) {
	subjects, err := s.subjectRepo.List()
	if err != nil {
		return nil, err
	}

	info := &dto.QuotaInfo{
		PlanType:  plan.PlanType,
		PeriodKey: periodKey,
		Subjects:  make([]dto.SubjectQuota, 0, len(subjects)),
	}

	for _, subject := range subjects {
		if plan.AllowedSubjectCount != model.Unlimited {
			if selectedSubjectID == nil || *selectedSubjectID != subject.ID {
				continue
			}
		}

		used, err := s.quotaRepo.UsedThisPeriod(userID, subject.ID, periodKey)
		if err != nil {
			return nil, err
		}

		sq := dto.SubjectQuota{
			SubjectID:   subject.ID,
			SubjectName: subject.Name,
			Limit:       plan.MonthlyGenerationLimit,
			Used:        used,
			Remaining:   model.Unlimited,
		}
		if plan.MonthlyGenerationLimit != model.Unlimited {
			sq.Remaining = plan.MonthlyGenerationLimit - used
			if sq.Remaining < 0 {
				sq.Remaining = 0
			}
		}
		info.Subjects = append(info.Subjects, sq)
	}

	return info, nil
}

func (s *QuotaService) decisionAfterUse(userID, subjectID int64, periodKey string, limit int) (QuotaDecision, error) {
	remaining, err := s.Remaining(userID, subjectID, periodKey, limit)
	if err != nil {
		return QuotaDecision{}, err
	}
	return QuotaDecision{Allowed: true, Remaining: remaining}, nil
}
