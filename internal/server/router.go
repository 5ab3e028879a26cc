package server

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"asset-register/internal/assets"
	"asset-register/internal/config"
	"asset-register/internal/database"
	"asset-register/internal/handlers"
	"asset-register/internal/middleware"
	"asset-register/internal/models"
	"asset-register/internal/storage"
)

func NewRouter(cfg *config.Config, store storage.Storage) *gin.Engine {
	r := gin.Default()

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("asset_session", sessionStore))
	r.Use(middleware.InjectUser(cfg.JWTSecret))

	svc := assets.NewService(
		database.NewAssetRepository(database.DB),
		database.NewEmployeeDirectory(database.DB),
		database.NewUserDirectory(database.DB),
		store,
	)
	assetHandler := handlers.NewAssetHandler(svc, store)

	// locally stored documents are served straight off disk
	if cfg.StorageDriver == "local" {
		r.Static("/files", cfg.UploadDir)
	}

	// AUTH
	r.POST("/register", handlers.Register)
	r.POST("/login", handlers.Login)
	r.POST("/api/login", handlers.APILogin(cfg.JWTSecret))
	r.GET("/logout", handlers.Logout)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	// ASSETS
	auth.GET("/assets", assetHandler.List)
	auth.GET("/assets/:id", assetHandler.Show)
	auth.GET("/assets/:id/history", assetHandler.History)
	auth.POST("/assets/:id/comments",
		middleware.RequireCapability(assets.CanComment),
		assetHandler.AddComment,
	)

	auth.POST("/assets",
		middleware.RequireCapability(assets.CanManage),
		assetHandler.Create,
	)
	auth.POST("/assets/:id",
		middleware.RequireCapability(assets.CanManage),
		assetHandler.Update,
	)

	// destruction is soft-delete only, and never for encoders
	auth.POST("/assets/:id/delete",
		middleware.RequireCapability(assets.CanDelete),
		assetHandler.Delete,
	)
	auth.POST("/assets/:id/restore",
		middleware.RequireCapability(assets.CanDelete),
		assetHandler.Restore,
	)

	// EMPLOYEES
	auth.GET("/employees", handlers.ListEmployees)
	auth.GET("/employees/:id", handlers.ShowEmployee)
	auth.POST("/employees",
		middleware.RequireRole(models.RoleAdmin, models.RoleEncoder),
		handlers.CreateEmployee,
	)
	auth.POST("/employees/:id",
		middleware.RequireRole(models.RoleAdmin, models.RoleEncoder),
		handlers.UpdateEmployee,
	)

	// AUDIT
	auth.GET("/audit",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ListAuditLogs,
	)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
