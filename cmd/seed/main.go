// Package main creates the admin user in the PostgreSQL catalog database.
// Running it again leaves an existing admin untouched.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/herbcatalog/internal/config"
	"github.com/atinyakov/herbcatalog/internal/db"
	"github.com/atinyakov/herbcatalog/internal/logger"
	"github.com/atinyakov/herbcatalog/internal/repository"
	"github.com/atinyakov/herbcatalog/internal/service"
)

func main() {
	options := config.Parse()

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	if options.DatabaseDSN == "" {
		zapLogger.Fatal("DATABASE_DSN is required")
	}
	if options.AdminPassword == "" {
		zapLogger.Fatal("ADMIN_PASSWORD is required")
	}

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer func() { _ = postgresDB.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tokens are never issued here.
	authService := service.NewAuthService(repository.NewPostgresAuthRepository(postgresDB), nil, zapLogger)
	created, err := authService.SeedAdmin(ctx, options.AdminUsername, options.AdminPassword)
	if err != nil {
		zapLogger.Fatal("cannot seed admin", zap.Error(err))
	}
	if created {
		fmt.Printf("admin user %q created\n", options.AdminUsername)
	} else {
		fmt.Printf("admin user %q exists\n", options.AdminUsername)
	}
}
