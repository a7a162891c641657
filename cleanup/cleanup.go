// Package cleanup drains the pending_blobs outbox: blob locators that row
// mutations have orphaned are deleted from the blob store with retries.
// The relational rows are already gone by the time a locator lands here, so
// nothing in this package ever affects a request's outcome.
package cleanup

import (
	"context"
	"time"

	"qrono/config"
	"qrono/db"
	"qrono/models"
	"qrono/storage"

	"github.com/rs/zerolog/log"
)

const (
	batchSize   = 100
	maxAttempts = 10
)

var notify = make(chan struct{}, 1)

// Notify pokes the worker to sweep soon instead of waiting out the interval.
// Safe to call from request handlers; never blocks.
func Notify() {
	select {
	case notify <- struct{}{}:
	default:
	}
}

// Run sweeps on an interval, on Notify, and once at startup (picking up
// whatever a previous run left behind). Blocks until ctx is cancelled.
func Run(ctx context.Context) {
	interval := time.Duration(config.CLEANUP_INTERVAL_SEC) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	SweepOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-notify:
		}
		SweepOnce()
	}
}

// SweepOnce processes up to one batch and reports how many blobs were
// resolved (deleted or given up on).
func SweepOnce() int {
	var pending []models.PendingBlob
	if err := db.Instance.Order("id").Limit(batchSize).Find(&pending).Error; err != nil {
		log.Error().Err(err).Msg("cleanup: cannot load pending blobs")
		return 0
	}
	resolved := 0
	for _, blob := range pending {
		if err := storage.Get().Delete(blob.Path); err != nil {
			blob.Attempts++
			blob.LastError = err.Error()
			if blob.Attempts >= maxAttempts {
				// Orphaned for good; keep the store consistent and move on
				log.Error().Str("path", blob.Path).Int("attempts", blob.Attempts).
					Err(err).Msg("cleanup: giving up on blob")
				db.Instance.Delete(&models.PendingBlob{}, blob.ID)
				resolved++
			} else {
				log.Warn().Str("path", blob.Path).Int("attempts", blob.Attempts).
					Err(err).Msg("cleanup: blob delete failed, will retry")
				db.Instance.Model(&models.PendingBlob{}).Where("id = ?", blob.ID).
					Updates(map[string]interface{}{"attempts": blob.Attempts, "last_error": blob.LastError})
			}
			continue
		}
		db.Instance.Delete(&models.PendingBlob{}, blob.ID)
		resolved++
	}
	if resolved > 0 {
		log.Debug().Int("count", resolved).Msg("cleanup: blobs resolved")
	}
	return resolved
}
