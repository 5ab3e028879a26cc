package models

import "gorm.io/gorm"

// Employee is a directory record assets can be assigned to. EmployeeNo is
// the business identifier used in human-readable history entries.
type Employee struct {
	gorm.Model
	EmployeeNo string `gorm:"size:32;uniqueIndex;not null"`
	FullName   string `gorm:"size:255;not null"`
	Department string `gorm:"size:100"`
	Email      string `gorm:"size:255"`
	Active     bool   `gorm:"default:true"`
}
