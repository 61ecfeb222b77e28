package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
)

const planCacheTTL = 10 * time.Minute

// PlanRepository reads SubscriptionPlan reference data. Plans sit on the
// feature-gate hot path, so lookups go through a redis cache when a client
// is provided (nil disables caching).
type PlanRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewPlanRepository(db *gorm.DB, rdb *redis.Client) *PlanRepository {
	return &PlanRepository{db: db, rdb: rdb}
}

func (r *PlanRepository) GetByID(id int64) (*model.SubscriptionPlan, error) {
	key := fmt.Sprintf("plan:id:%d", id)
	if plan := r.fromCache(key); plan != nil {
		return plan, nil
	}

	var plan model.SubscriptionPlan
	if err := r.db.Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}

	r.toCache(key, &plan)
	return &plan, nil
}

func (r *PlanRepository) GetByType(planType string) (*model.SubscriptionPlan, error) {
	key := "plan:type:" + planType
	if plan := r.fromCache(key); plan != nil {
		return plan, nil
	}

	var plan model.SubscriptionPlan
	if err := r.db.Where("plan_type = ?", planType).First(&plan).Error; err != nil {
		return nil, err
	}

	r.toCache(key, &plan)
	return &plan, nil
}

// ListActive returns the public plan catalogue, never from cache so admin
// edits show up immediately.
func (r *PlanRepository) ListActive() ([]*model.SubscriptionPlan, error) {
	var plans []*model.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).Order("price_cents ASC").Find(&plans).Error
	return plans, err
}

// Upsert creates or updates a plan by its plan_type and drops stale cache
// entries. Used by bootstrap seeding and admin tooling.
func (r *PlanRepository) Upsert(plan *model.SubscriptionPlan) error {
	var existing model.SubscriptionPlan
	err := r.db.Where("plan_type = ?", plan.PlanType).First(&existing).Error
	switch {
	case err == nil:
		plan.ID = existing.ID
		plan.CreatedAt = existing.CreatedAt
		if err := r.db.Save(plan).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.Create(plan).Error; err != nil {
			return err
		}
	default:
		return err
	}

	r.invalidate(plan)
	return nil
}

func (r *PlanRepository) fromCache(key string) *model.SubscriptionPlan {
	if r.rdb == nil {
		return nil
	}
	data, err := r.rdb.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil
	}
	var plan model.SubscriptionPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil
	}
	return &plan
}

func (r *PlanRepository) toCache(key string, plan *model.SubscriptionPlan) {
	if r.rdb == nil {
		return
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return
	}
	// Cache write failure only costs a later DB read.
	r.rdb.Set(context.Background(), key, data, planCacheTTL)
}

func (r *PlanRepository) invalidate(plan *model.SubscriptionPlan) {
	if r.rdb == nil {
		return
	}
	r.rdb.Del(context.Background(),
		fmt.Sprintf("plan:id:%d", plan.ID),
		"plan:type:"+plan.PlanType,
	)
}
