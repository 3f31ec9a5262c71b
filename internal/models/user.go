package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account created through the profile form.
type User struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string         `gorm:"not null;size:100;uniqueIndex" json:"username"`
	Email        string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password     string         `gorm:"not null" json:"-"`
	ProfilePhoto string         `gorm:"type:text" json:"profilePhoto"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
