package main

import (
	"context"
	"log"
	"os"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/config"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/logger"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/auth"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	username := os.Getenv("ADMIN_USERNAME")
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := config.GetEnv("ADMIN_NAME", username)
	role := config.GetEnv("ADMIN_ROLE", models.RoleSuperadmin)

	if username == "" || email == "" || password == "" {
		log.Fatal("ADMIN_USERNAME, ADMIN_EMAIL, and ADMIN_PASSWORD must be set in environment")
	}
	if role != models.RoleAdmin && role != models.RoleSuperadmin {
		log.Fatalf("ADMIN_ROLE must be %q or %q", models.RoleAdmin, models.RoleSuperadmin)
	}
	if len(password) < 8 {
		log.Fatal("ADMIN_PASSWORD must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zl := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zl.Sync() //nolint:errcheck

	db, err := repositories.InitDB(cfg.Database, zl)
	if err != nil {
		zl.Fatal("database unavailable", zap.Error(err))
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			zl.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	ctx := context.Background()
	admins := repositories.NewAdminRepository(db)

	exists, err := admins.Exists(ctx, username, email)
	if err != nil {
		zl.Fatal("failed to look up admin", zap.Error(err))
	}
	if exists {
		zl.Info("admin account already exists", zap.String("username", username))
		return
	}

	hash, err := auth.HashPassword(password, config.GetIntEnv("ADMIN_HASH_COST", auth.DefaultHashCost))
	if err != nil {
		zl.Fatal("failed to hash password", zap.Error(err))
	}

	admin := &models.Admin{
		Username:     username,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		TokenVersion: 1,
	}
	if err := admins.Create(ctx, admin); err != nil {
		zl.Fatal("failed to create admin", zap.Error(err))
	}

	zl.Info("admin account created", zap.String("username", username), zap.String("role", role))
}
