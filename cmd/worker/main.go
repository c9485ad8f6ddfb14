package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/decksmith/deck-backend/config"
	cronjob "github.com/decksmith/deck-backend/internal/exports/cron"
	"github.com/decksmith/deck-backend/internal/storage"
)

// Maintenance worker: runs the nightly export janitor against local
// storage. With --once it purges a single time and exits.
func main() {
	once := flag.Bool("once", false, "run one purge pass and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Storage.Backend != "local" {
		log.Fatalf("janitor only applies to local storage (got %q); use a bucket lifecycle rule for s3", cfg.Storage.Backend)
	}

	store, err := storage.NewLocalStore(cfg.Storage.Root)
	if err != nil {
		log.Fatalf("local storage: %v", err)
	}

	janitor := cronjob.NewJanitor(store, cfg.Export.TTL)

	if *once {
		janitor.RunOnce()
		return
	}

	c := janitor.Start()
	defer c.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Println("worker shutting down")
}
