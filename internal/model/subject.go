package model

import (
	"time"
)

// Subject is curriculum reference data (Mathematics, Physics, ...).
type Subject struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Subject) TableName() string {
	return "subjects"
}
