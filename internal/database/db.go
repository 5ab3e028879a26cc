package database

import (
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"asset-register/internal/models"
)

var DB *gorm.DB

func Init(dsn string) {
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		zap.S().Infow("connecting to DB", "attempt", i, "max", maxAttempts)

		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err == nil {
			zap.S().Info("connected to DB")
			break
		}

		zap.S().Warnw("failed to connect to DB", "error", err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		zap.S().Fatalw("giving up connecting to DB", "attempts", maxAttempts, "error", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Employee{},
		&models.Asset{},
		&models.AuditLog{},
	)
	if err != nil {
		zap.S().Fatalw("failed to migrate", "error", err)
	}

	createDefaultAdmin()
	ensureSystemUser()
}

// admin comes from env/config only, never from the registration form
func createDefaultAdmin() {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin@assets.local"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "Admin123!"
	}

	var count int64
	if err := DB.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		zap.S().Warnw("failed to check admin user", "error", err)
		return
	}
	if count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		zap.S().Warnw("failed to hash default admin password", "error", err)
		return
	}

	admin := models.User{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  "Administrator",
		Role:         models.RoleAdmin,
	}

	if err := DB.Create(&admin).Error; err != nil {
		zap.S().Warnw("failed to create default admin", "error", err)
		return
	}

	zap.S().Infow("created default admin user", "username", username)
}

// ensureSystemUser seeds the well-known actor that history entries fall
// back to when no authenticated user is present.
func ensureSystemUser() {
	var count int64
	if err := DB.Model(&models.User{}).
		Where("username = ?", models.SystemUsername).
		Count(&count).Error; err != nil {
		zap.S().Warnw("failed to check system user", "error", err)
		return
	}
	if count > 0 {
		return
	}

	// random unusable password: the system user never logs in
	hash, err := bcrypt.GenerateFromPassword([]byte(time.Now().String()), bcrypt.DefaultCost)
	if err != nil {
		zap.S().Warnw("failed to hash system user password", "error", err)
		return
	}

	sys := models.User{
		Username:     models.SystemUsername,
		PasswordHash: string(hash),
		DisplayName:  "System",
		Role:         models.RoleUser,
	}
	if err := DB.Create(&sys).Error; err != nil {
		zap.S().Warnw("failed to create system user", "error", err)
		return
	}
	zap.S().Info("created system user")
}

// SystemUserID resolves the seeded system actor. Returns 0 when it does not
// exist yet; callers treat 0 as "system" anyway.
func SystemUserID() uint {
	var sys models.User
	if err := DB.Where("username = ?", models.SystemUsername).First(&sys).Error; err != nil {
		return 0
	}
	return sys.ID
}
