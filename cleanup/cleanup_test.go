package cleanup

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"qrono/config"
	"qrono/db"
	"qrono/models"
	"qrono/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var setupOnce sync.Once

func setupEnv(t *testing.T) {
	t.Helper()
	setupOnce.Do(func() {
		config.SQLITE_FILE = "file:cleanup_test?mode=memory&cache=shared"
		db.Init()
		sqlDB, err := db.Instance.DB()
		if err != nil {
			panic(err)
		}
		sqlDB.SetMaxOpenConns(1)
		models.Init()
	})
	require.NoError(t, db.Instance.Exec("DELETE FROM pending_blobs").Error)
	config.STORAGE_DIR = t.TempDir()
	storage.Init()
}

func TestSweepDeletesBlobsAndRows(t *testing.T) {
	setupEnv(t)

	_, err := storage.Get().Save("photos/a.jpg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, models.EnqueueBlobCleanup(db.Instance, "photos/a.jpg"))

	assert.Equal(t, 1, SweepOnce())

	_, err = os.Stat(filepath.Join(config.STORAGE_DIR, "photos/a.jpg"))
	assert.True(t, os.IsNotExist(err), "blob must be deleted from the store")
	var count int64
	db.Instance.Model(&models.PendingBlob{}).Count(&count)
	assert.Zero(t, count)
}

func TestSweepTreatsMissingBlobAsDone(t *testing.T) {
	setupEnv(t)

	require.NoError(t, models.EnqueueBlobCleanup(db.Instance, "photos/never-existed.jpg"))
	assert.Equal(t, 1, SweepOnce())

	var count int64
	db.Instance.Model(&models.PendingBlob{}).Count(&count)
	assert.Zero(t, count)
}

func TestSweepRetriesFailures(t *testing.T) {
	setupEnv(t)

	// A non-empty directory cannot be removed like a file, so deletion fails
	_, err := storage.Get().Save("stuck/inner.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, models.EnqueueBlobCleanup(db.Instance, "stuck"))

	assert.Equal(t, 0, SweepOnce())

	var pending models.PendingBlob
	require.NoError(t, db.Instance.First(&pending).Error)
	assert.Equal(t, 1, pending.Attempts)
	assert.NotEmpty(t, pending.LastError)

	// After the attempt cap the row is dropped and the orphan logged
	require.NoError(t, db.Instance.Model(&pending).Update("attempts", maxAttempts-1).Error)
	assert.Equal(t, 1, SweepOnce())
	var count int64
	db.Instance.Model(&models.PendingBlob{}).Count(&count)
	assert.Zero(t, count)
}

func TestEnqueueSkipsEmptyPaths(t *testing.T) {
	setupEnv(t)

	require.NoError(t, models.EnqueueBlobCleanup(db.Instance, "", "photos/a.jpg", ""))
	var pending []models.PendingBlob
	require.NoError(t, db.Instance.Find(&pending).Error)
	require.Len(t, pending, 1)
	assert.Equal(t, "photos/a.jpg", pending[0].Path)
}
