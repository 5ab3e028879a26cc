package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is the system-wide audit feed, one row per mutating request.
// Per-asset history lives on the Asset row itself; this table is the
// cross-entity view admins browse.
type AuditLog struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	UserID uint
	User   User

	Entity   string `gorm:"size:50;not null"` // "asset", "employee", "user"
	EntityID uint
	Action   string         `gorm:"size:50;not null"` // "create", "update", "delete", "restore", "comment"
	Details  datatypes.JSON `gorm:"type:jsonb"`
}
