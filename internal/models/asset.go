package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssetStatus string

const (
	StatusInUse            AssetStatus = "In-use"
	StatusSpare            AssetStatus = "Spare"
	StatusUnderMaintenance AssetStatus = "Under Maintenance"
	StatusRetired          AssetStatus = "Retired"
)

func (s AssetStatus) Valid() bool {
	switch s {
	case StatusInUse, StatusSpare, StatusUnderMaintenance, StatusRetired:
		return true
	}
	return false
}

// Asset is a tracked piece of hardware. AssetID is the human-readable
// business identifier (A#00001); it is assigned once at creation and stays
// unique across live and soft-deleted rows. The four *History columns are
// append-only JSON logs maintained by internal/assets.
type Asset struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	AssetID string `gorm:"size:16;uniqueIndex;not null"`

	Category string `gorm:"size:100;not null"`
	Brand    string `gorm:"size:100"`
	Model    string `gorm:"size:100"`
	Serial   string `gorm:"size:100"`
	Vendor   string `gorm:"size:255"`

	PurchaseDate       *time.Time
	WarrantyExpiryDate *time.Time

	Status          AssetStatus `gorm:"type:varchar(32);not null"`
	StatusChangedAt *time.Time

	AssignedTo *uint
	Assignee   *Employee `gorm:"foreignKey:AssignedTo"`

	StatusHistory       datatypes.JSON `gorm:"type:jsonb"`
	AssignmentHistory   datatypes.JSON `gorm:"type:jsonb"`
	CommentsHistory     datatypes.JSON `gorm:"type:jsonb"`
	ModificationHistory datatypes.JSON `gorm:"type:jsonb"`

	Notes         datatypes.JSON `gorm:"type:jsonb"`
	DocumentPaths datatypes.JSON `gorm:"type:jsonb"`

	CreatedBy uint
	UpdatedBy uint
}
