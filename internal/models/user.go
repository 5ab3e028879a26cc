package models

import "gorm.io/gorm"

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleEncoder UserRole = "encoder"
	RoleUser    UserRole = "user"
)

// SystemUsername is the well-known actor history entries are attributed to
// when no authenticated user is present (seed scripts, migrations).
const SystemUsername = "system"

type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string   `gorm:"not null"`
	DisplayName  string   `gorm:"size:255"`
	Role         UserRole `gorm:"type:varchar(20);not null"`
}
