package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dudlr/dudlr/internal/config"
	httpserver "github.com/dudlr/dudlr/internal/http"
	"github.com/dudlr/dudlr/internal/identity"
	"github.com/dudlr/dudlr/internal/migrate"
	"github.com/dudlr/dudlr/internal/repository"
	"github.com/dudlr/dudlr/internal/service"
	"github.com/dudlr/dudlr/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer st.Close()

	if err := migrate.Up(dbCtx, cfg.DBURL); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	repo := repository.New(st)
	artists := service.NewArtistService(repo.Artists)
	doodles := service.NewDoodleService(repo.Doodles, repo.Artists, repo.Ratings, nil)
	gallery := service.NewGalleryService(repo.Doodles, repo.Artists, cfg.GalleryPageSize)

	tokens := identity.NewTokenParser(cfg.AuthSecret)

	server := httpserver.New(cfg, st, httpserver.Services{
		Artists: artists,
		Doodles: doodles,
		Gallery: gallery,
	}, tokens, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}
