package model

import (
	"time"
)

// GeneratedAssignment stores the output of a gated AI generation call.
type GeneratedAssignment struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	UserID       int64     `gorm:"not null;index" json:"user_id"`
	SubjectID    int64     `gorm:"not null;index" json:"subject_id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	GradeLevel   int       `json:"grade_level"`
	QuestionType string    `gorm:"size:20" json:"question_type"` // MCQ, Structured, FreeResponse
	Content      string    `gorm:"type:text" json:"content"`     // generated questions, JSON
	CreatedAt    time.Time `json:"created_at"`
}

func (GeneratedAssignment) TableName() string {
	return "generated_assignments"
}
