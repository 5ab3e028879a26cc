package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asset-register/internal/database"
	"asset-register/internal/models"
)

// ListAuditLogs serves the system-wide audit feed, newest first. Access is
// gated to admins at the route level.
func ListAuditLogs(c *gin.Context) {
	q := database.DB.Preload("User").Order("created_at desc").Limit(200)

	if entity := c.Query("entity"); entity != "" {
		q = q.Where("entity = ?", entity)
	}
	if action := c.Query("action"); action != "" {
		q = q.Where("action = ?", action)
	}

	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
