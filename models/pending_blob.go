package models

import (
	"qrono/db"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PendingBlob is one blob locator awaiting deletion from the blob store.
// Rows are written in the same transaction as the row mutation that orphans
// the blob, so a crash between commit and blob deletion leaves a durable
// record instead of a silent orphan. The cleanup worker drains the table.
type PendingBlob struct {
	ID        uint64 `gorm:"primaryKey"`
	CreatedAt int64
	Path      string `gorm:"type:varchar(300);not null"`
	Attempts  int    `gorm:"not null;default:0"`
	LastError string `gorm:"type:varchar(500)"`
}

// EnqueueBlobCleanup records the given locators for deletion. Empty locators
// are skipped. Pass the surrounding transaction so the enqueue commits or
// rolls back together with the row mutation.
func EnqueueBlobCleanup(tx *gorm.DB, paths ...string) error {
	rows := make([]PendingBlob, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		rows = append(rows, PendingBlob{Path: p})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// enqueueBestEffort is for staged uploads whose owning transaction already
// failed: losing the enqueue only costs an orphaned blob, never row state.
func enqueueBestEffort(paths ...string) {
	if err := EnqueueBlobCleanup(db.Instance, paths...); err != nil {
		log.Error().Err(err).Strs("paths", paths).Msg("failed to enqueue blob cleanup")
	}
}
