package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
)

// defaultPlans is the launch catalogue. Prices are ZAR cents; -1 means
// unlimited.
func defaultPlans() []model.SubscriptionPlan {
	return []model.SubscriptionPlan{
		{
			Name:                   "Free",
			PlanType:               model.PlanFree,
			PriceCents:             0,
			AllowUpload:            false,
			AllowAI:                false,
			AllowLibrary:           false,
			AllowedSubjectCount:    0,
			MonthlyGenerationLimit: 0,
			IsActive:               true,
		},
		{
			Name:                   "Starter",
			PlanType:               model.PlanStarter,
			PriceCents:             5000,
			AllowUpload:            true,
			AllowAI:                true,
			AllowLibrary:           false,
			AllowedSubjectCount:    1,
			MonthlyGenerationLimit: 30,
			IsActive:               true,
		},
		{
			Name:                   "Growth",
			PlanType:               model.PlanGrowth,
			PriceCents:             10000,
			AllowUpload:            true,
			AllowAI:                true,
			AllowLibrary:           true,
			AllowedSubjectCount:    1,
			MonthlyGenerationLimit: 100,
			IsActive:               true,
		},
		{
			Name:                   "Premium",
			PlanType:               model.PlanPremium,
			PriceCents:             25000,
			AllowUpload:            true,
			AllowAI:                true,
			AllowLibrary:           true,
			AllowedSubjectCount:    model.Unlimited,
			MonthlyGenerationLimit: model.Unlimited,
			IsActive:               true,
		},
	}
}

func defaultSubjects() []model.Subject {
	return []model.Subject{
		{Name: "Mathematics"},
		{Name: "Physical Sciences"},
		{Name: "Life Sciences"},
		{Name: "English"},
		{Name: "Geography"},
		{Name: "History"},
		{Name: "Accounting"},
	}
}

// Seed inserts the default plans and subjects. Existing rows keep their
// feature flags; only missing entries are created.
func Seed(db *gorm.DB) error {
	for _, plan := range defaultPlans() {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plan_type"}},
			DoNothing: true,
		}).Create(&plan).Error
		if err != nil {
			return err
		}
	}

	for _, subject := range defaultSubjects() {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&subject).Error
		if err != nil {
			return err
		}
	}

	return nil
}
