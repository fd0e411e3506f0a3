package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	httpapi "github.com/abhijeet1275/image-matcher/internal/api/http"
	"github.com/abhijeet1275/image-matcher/internal/api/http/handler"
	"github.com/abhijeet1275/image-matcher/internal/config"
	"github.com/abhijeet1275/image-matcher/internal/embedding"
	"github.com/abhijeet1275/image-matcher/internal/logger"
	"github.com/abhijeet1275/image-matcher/internal/matcher"
	"github.com/abhijeet1275/image-matcher/internal/repository/postgres"
	"github.com/abhijeet1275/image-matcher/internal/service"
	storage "github.com/abhijeet1275/image-matcher/internal/storage/minio"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	matchRepo := postgres.NewMatchRepository(db)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	// The sidecar holds the model; it loads once at its startup and the
	// client is shared by every request pipeline.
	clipClient := embedding.NewCLIPClient(
		cfg.Embedder.Endpoint,
		cfg.Embedder.Dimension,
		time.Duration(cfg.Embedder.TimeoutSeconds)*time.Second,
	)
	if err := clipClient.Ping(ctx); err != nil {
		logger.Fatal("embedding sidecar unreachable", "endpoint", cfg.Embedder.Endpoint, "error", err)
	}
	logger.Info("embedding sidecar ready", "endpoint", cfg.Embedder.Endpoint, "dimension", cfg.Embedder.Dimension)

	decomposer := matcher.NewDecomposer(cfg.Matching.MaxFeatures)
	scorer := matcher.NewScorer(matcher.ScorerConfig{
		StrongThreshold:  cfg.Matching.StrongThreshold,
		PartialThreshold: cfg.Matching.PartialThreshold,
		HolisticWeight:   cfg.Matching.HolisticWeight,
		FeatureWeight:    cfg.Matching.FeatureWeight,
		ScaleFloor:       cfg.Matching.ScaleFloor,
		ScaleCeil:        cfg.Matching.ScaleCeil,
	})

	authService := service.NewAuth(userRepo, logger)
	matchService := service.NewMatch(decomposer, scorer, clipClient, matchRepo, userRepo, storageClient, logger)

	engine := httpapi.NewRouter(httpapi.RouterConfig{
		Auth:           handler.NewAuth(authService),
		Match:          handler.NewMatch(matchService),
		Health:         handler.NewHealth(db, clipClient),
		Logger:         logger,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	})
	httpServer := httpapi.NewServer(engine, fmt.Sprintf(":%s", cfg.HTTP.Port))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting server on", "address", httpServer.Address())
		if err := httpServer.Start(); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
