package repository

import (
	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(assignment *model.GeneratedAssignment) error {
	return r.db.Create(assignment).Error
}

func (r *AssignmentRepository) GetByID(id int64) (*model.GeneratedAssignment, error) {
	var assignment model.GeneratedAssignment
	err := r.db.Where("id = ?", id).First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) ListByUser(userID int64, page, pageSize int) ([]*model.GeneratedAssignment, int64, error) {
	var total int64
	if err := r.db.Model(&model.GeneratedAssignment{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var assignments []*model.GeneratedAssignment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&assignments).Error
	return assignments, total, err
}
