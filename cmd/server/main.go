package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"asset-register/internal/config"
	"asset-register/internal/database"
	"asset-register/internal/logger"
	"asset-register/internal/server"
	"asset-register/internal/storage"
)

func main() {
	cfg := config.Load()

	l, err := logger.Init(os.Getenv("DEBUG") == "1")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = l.Sync() }()

	database.Init(cfg.DBDSN)

	store, err := buildStorage(cfg)
	if err != nil {
		zap.S().Fatalw("storage init failed", "driver", cfg.StorageDriver, "error", err)
	}

	r := server.NewRouter(cfg, store)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	zap.S().Infow("starting server", "addr", addr)
	if err := r.Run(addr); err != nil {
		zap.S().Fatalw("server error", "error", err)
	}
}

func buildStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case "s3":
		return storage.NewS3(context.Background(), storage.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case "local":
		return storage.NewLocal(cfg.UploadDir, "/files"), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
