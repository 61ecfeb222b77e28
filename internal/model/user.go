package model

import (
	"time"
)

type User struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email         string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	FirstName     string    `gorm:"size:50" json:"first_name"`
	LastName      string    `gorm:"size:50" json:"last_name"`
	Role          string    `gorm:"size:10;default:teacher" json:"role"` // teacher, admin
	EmailVerified bool      `gorm:"default:false" json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
