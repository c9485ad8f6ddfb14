package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/decksmith/deck-backend/config"
	"github.com/decksmith/deck-backend/internal/bootstrap"
	"github.com/decksmith/deck-backend/internal/db"
	"github.com/decksmith/deck-backend/internal/storage"
)

const serviceName = "deck-backend"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	if err := db.Migrate(cfg.Database.DSN); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	database, err := db.Open(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		// Export records are an enhancement; the API works without them.
		log.Printf("redis unavailable, export records disabled: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	var (
		blobs     storage.BlobStore
		localRoot string
	)
	switch cfg.Storage.Backend {
	case "s3":
		s3Store, err := storage.NewS3Store(ctx, cfg.Storage.S3Bucket, cfg.Storage.S3Region)
		if err != nil {
			log.Fatalf("s3 storage: %v", err)
		}
		blobs = s3Store
	default:
		localStore, err := storage.NewLocalStore(cfg.Storage.Root)
		if err != nil {
			log.Fatalf("local storage: %v", err)
		}
		blobs = localStore
		localRoot = localStore.Root()
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		DB:          database.Pool,
		Redis:       rdb,
		Blobs:       blobs,
		LocalRoot:   localRoot,
		BaseURL:     cfg.Server.PublicBaseURL,
		ExportTTL:   cfg.Export.TTL,
		ExportRPS:   cfg.Export.RateRPS,
		ExportBurst: cfg.Export.RateBurst,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("%s listening on :%s", serviceName, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
