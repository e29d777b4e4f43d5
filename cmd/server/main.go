// Package main initializes and starts the catalog HTTP server,
// setting up configuration, logging, storage backends, services,
// handlers and the orphan reclaim schedule.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/herbcatalog/internal/auth"
	"github.com/atinyakov/herbcatalog/internal/config"
	"github.com/atinyakov/herbcatalog/internal/db"
	"github.com/atinyakov/herbcatalog/internal/logger"
	"github.com/atinyakov/herbcatalog/internal/query"
	"github.com/atinyakov/herbcatalog/internal/reclaim"
	"github.com/atinyakov/herbcatalog/internal/repository"
	"github.com/atinyakov/herbcatalog/internal/server/handler/http"
	"github.com/atinyakov/herbcatalog/internal/service"
	"github.com/atinyakov/herbcatalog/internal/upload"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// productStore is satisfied by both product repository backends.
type productStore interface {
	service.ProductStore
	reclaim.References
}

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	if options.SecretKey == "" {
		zapLogger.Fatal("SECRET_KEY is required")
	}

	reclaimSpec, err := options.ReclaimSpec()
	if err != nil {
		zapLogger.Fatal("invalid reclaim time", zap.Error(err))
	}
	location, err := time.LoadLocation(options.Location)
	if err != nil {
		zapLogger.Fatal("invalid time zone location", zap.String("location", options.Location), zap.Error(err))
	}

	// Select the storage backend: PostgreSQL when a DSN is set, memory otherwise.
	var (
		products productStore
		users    service.AuthRepository
	)
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer func() { _ = postgresDB.Close() }()
		products = repository.NewPostgresProductRepository(postgresDB)
		users = repository.NewPostgresAuthRepository(postgresDB)
		zapLogger.Info("using PostgreSQL backend")
	} else {
		products = repository.NewMemoryProductRepository()
		users = repository.NewMemoryAuthRepository()
		zapLogger.Warn("DATABASE_DSN is empty, using in-memory backend")
	}

	store, err := upload.NewStore(afero.NewOsFs(), options.UploadDir, options.AllowedExtensions)
	if err != nil {
		zapLogger.Fatal("cannot init upload store", zap.Error(err))
	}

	codec := auth.NewTokenCodec(options.SecretKey, options.TokenTTL.Duration, zapLogger)

	// Initialize business-logic services.
	bounds := query.Bounds{DefaultLimit: options.DefaultLimit, MaxLimit: options.MaxLimit}
	authService := service.NewAuthService(users, codec, zapLogger)
	productService := service.NewProductService(products, store, options.PublicPrefix, bounds, zapLogger)
	reclaimer := reclaim.New(products, store, options.ReclaimGrace.Duration, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The in-memory backend starts empty, so the admin is seeded on boot.
	if options.DatabaseDSN == "" && options.AdminPassword != "" {
		if _, err := authService.SeedAdmin(ctx, options.AdminUsername, options.AdminPassword); err != nil {
			zapLogger.Fatal("cannot seed admin", zap.Error(err))
		}
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Auth:     &http.AuthHandler{AuthService: authService, Log: zapLogger},
		Products: &http.ProductHandler{ProductService: productService, MaxUploadBytes: options.MaxUploadBytes, Log: zapLogger},
		Reclaim:  &http.ReclaimHandler{Reclaimer: reclaimer, Log: zapLogger},
		Uploads:  &http.UploadsHandler{Files: store, Log: zapLogger},
	}, codec, options.PublicPrefix, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return reclaimer.Run(gctx, reclaimSpec, location)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
