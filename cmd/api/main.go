package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"lensfolio/api/internal/cache"
	"lensfolio/api/internal/config"
	"lensfolio/api/internal/database"
	"lensfolio/api/internal/handlers"
	"lensfolio/api/internal/jobs"
	"lensfolio/api/internal/log"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/server"
	"lensfolio/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := log.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			// View dedup and shared rate limiting degrade without redis, the
			// API itself keeps working.
			logger.Warn().Err(err).Msg("redis unavailable, continuing without it")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var store storage.Store
	var staticDir string
	if cfg.Storage.AccessKey != "" {
		s3, err := storage.NewS3Store(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("object storage init failed")
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			logger.Fatal().Err(err).Msg("object storage bucket check failed")
		}
		store = s3
	} else {
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("local storage init failed")
		}
		store = local
		staticDir = local.Root()
		logger.Warn().Str("dir", staticDir).Msg("no storage credentials, using local filesystem store")
	}

	handlerSet := handlers.NewHandlerSet(logger, pool, redisClient, store, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet, redisClient, staticDir)

	scheduler := jobs.NewScheduler(
		repository.NewUserRepository(pool),
		repository.NewSessionRepository(pool),
		repository.NewPhotoRepository(pool),
		store,
		logger,
	)
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("job scheduler start failed")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	scheduler.Stop()
}
