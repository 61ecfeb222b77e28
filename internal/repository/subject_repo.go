package repository

import (
	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
)

type SubjectRepository struct {
	db *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) Create(subject *model.Subject) error {
	return r.db.Create(subject).Error
}

func (r *SubjectRepository) GetByID(id int64) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.Where("id = ?", id).First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *SubjectRepository) List() ([]*model.Subject, error) {
	var subjects []*model.Subject
	err := r.db.Order("name ASC").Find(&subjects).Error
	return subjects, err
}
