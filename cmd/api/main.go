package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sharedrive/sharedrive/internal/activity"
	"github.com/sharedrive/sharedrive/internal/auth"
	"github.com/sharedrive/sharedrive/internal/config"
	"github.com/sharedrive/sharedrive/internal/file"
	"github.com/sharedrive/sharedrive/internal/logger"
	"github.com/sharedrive/sharedrive/internal/server"
	"github.com/sharedrive/sharedrive/internal/share"
	"github.com/sharedrive/sharedrive/internal/storage"
	"github.com/sharedrive/sharedrive/internal/team"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	log, err := logger.Init()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("api exited", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := storage.RunMigrations(ctx, cfg.Postgres); err != nil {
		return err
	}

	pool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		return err
	}
	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		return err
	}

	userRepo := auth.NewRepository(pool)
	fileRepo := file.NewRepository(pool)
	teamRepo := team.NewRepository(pool)
	activityRepo := activity.NewRepository(pool)

	objectStore := file.NewMinIOStore(minioClient)
	activityLog := activity.NewLog(activityRepo, log)

	services := server.Services{
		Auth:  auth.NewService(userRepo, cfg.Auth, cfg.Quota),
		File:  file.NewService(fileRepo, objectStore, cfg.MinIO.Bucket, cfg.Auth.BcryptCost),
		Team:  team.NewService(teamRepo, userRepo, fileRepo, activityLog, objectStore, cfg.MinIO.Bucket),
		Share: share.NewService(fileRepo, minioClient, cfg.MinIO.Bucket, cfg.Share),
	}

	router := server.NewRouter(cfg, log, services, server.Dependencies{
		Pool:   pool,
		MinIO:  minioClient,
		Bucket: cfg.MinIO.Bucket,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
