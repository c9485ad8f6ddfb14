package cronjob

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/decksmith/deck-backend/internal/storage"
)

// Janitor purges export artifacts that outlived their retention window.
// Export records in redis expire on their own TTL; this reclaims the binary
// payloads on local disk. S3 deployments use a bucket lifecycle rule
// instead.
type Janitor struct {
	store  *storage.LocalStore
	maxAge time.Duration
}

func NewJanitor(store *storage.LocalStore, maxAge time.Duration) *Janitor {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &Janitor{store: store, maxAge: maxAge}
}

// Start schedules the nightly purge (12:00 AM).
func (j *Janitor) Start() *cron.Cron {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc("0 0 0 * * *", func() {
		j.RunOnce()
	})
	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return c
	}

	log.Println("Export janitor started (running nightly at 12:00AM)")
	c.Start()
	return c
}

// RunOnce walks the storage root and removes expired export artifacts.
func (j *Janitor) RunOnce() {
	cutoff := time.Now().Add(-j.maxAge)
	removed := 0

	err := filepath.Walk(j.store.Root(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(j.store.Root(), path)
		if relErr != nil {
			return relErr
		}
		// Only artifacts under {project_id}/exports/ are retention-bound;
		// page images stay until their project is deleted.
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 || parts[1] != "exports" {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if rmErr := os.Remove(path); rmErr != nil {
				log.Printf("[janitor] failed to remove %s: %v", rel, rmErr)
				return nil
			}
			removed++
		}
		return nil
	})
	if err != nil {
		log.Printf("[janitor] walk failed: %v", err)
		return
	}

	log.Printf("[janitor] purge complete, removed=%d, cutoff=%s", removed, cutoff.Format(time.RFC3339))
}
