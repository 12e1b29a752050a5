package domain

import "gorm.io/gorm"

const (
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

type Account struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:STUDENT" json:"role"` // STUDENT | ADMIN
	IsApproved   bool   `gorm:"not null;default:false" json:"isApproved"`
	gorm.Model
}
