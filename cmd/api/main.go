package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ghostdrive/api/internal/auth"
	"github.com/ghostdrive/api/internal/config"
	"github.com/ghostdrive/api/internal/drive"
	"github.com/ghostdrive/api/internal/logger"
	"github.com/ghostdrive/api/internal/namespace"
	"github.com/ghostdrive/api/internal/quota"
	"github.com/ghostdrive/api/internal/server"
	"github.com/ghostdrive/api/internal/storage"
	"github.com/ghostdrive/api/internal/upload"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatal("connect minio", zap.Error(err))
	}

	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.CommonBucket, cfg.MinIO.Region); err != nil {
		log.Fatal("ensure common bucket", zap.Error(err))
	}

	bucketManager := storage.NewBucketManager(minioClient, cfg.MinIO.Region)

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, bucketManager, cfg.Auth, cfg.Storage)

	objectStore := upload.NewMinIOStore(minioClient)

	namespaceRepo := namespace.NewRepository(dbPool)
	tree := namespace.NewTree(namespaceRepo, objectStore, log)

	ledger := quota.NewLedger(quota.NewRepository(dbPool))
	coordinator := upload.NewCoordinator(namespaceRepo, ledger, objectStore, cfg.Storage.PresignTTL)

	driveService := drive.NewService(tree, ledger, coordinator, cfg.MinIO.CommonBucket)

	router := server.NewRouter(server.Dependencies{
		Config:       cfg,
		DB:           dbPool,
		ObjectStore:  minioClient,
		AuthService:  authService,
		DriveService: driveService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("GhostDrive API listening", zap.String("address", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
