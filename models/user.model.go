package models

import (
	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

type User struct {
	gorm.Model
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"unique;not null" json:"email"`
	Password     string `gorm:"not null" json:"-"`
	Role         string `gorm:"default:'STUDENT'" json:"role"` // STUDENT, INSTRUCTOR, ADMIN
	ProfileImage string `gorm:"default:''" json:"profile_image"`
	Bio          string `gorm:"type:text;default:''" json:"bio"`
	IsDeleted    bool   `gorm:"default:false" json:"-"`
}
