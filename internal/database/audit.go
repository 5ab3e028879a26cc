package database

import (
	"encoding/json"

	"asset-register/internal/models"
)

// CreateAuditLog writes one row to the system-wide audit feed. Failures are
// logged nowhere on purpose: the feed is secondary to the per-asset history.
func CreateAuditLog(userID uint, entity string, entityID uint, action string, details any) {
	if DB == nil {
		return
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			record.Details = raw
		}
	}
	_ = DB.Create(&record).Error
}
