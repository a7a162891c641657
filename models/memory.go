package models

import (
	"errors"
	"sync"

	"qrono/db"

	"gorm.io/gorm"
)

type Memory struct {
	ID         uint64  `gorm:"primaryKey" json:"id"`
	AlbumID    uint64  `gorm:"not null;index" json:"album_id"`
	Album      Album   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt  int64   `json:"created_at"`
	Title      string  `gorm:"type:varchar(300)" json:"title"`
	DiaryEntry string  `gorm:"type:text" json:"diary_entry"`
	Photos     []Photo `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"photos"`
}

// MemorySummary is a memory enriched with the locator of its first photo,
// used as a derived cover in album listings. CoverPath is empty when the
// memory has no photos.
type MemorySummary struct {
	Memory
	CoverPath string
}

// memoryOwned resolves ownership transitively through the owning album.
// Absent and unowned are indistinguishable to the caller.
func memoryOwned(tx *gorm.DB, userID, memoryID uint64) (Memory, error) {
	var memory Memory
	err := tx.
		Select("memories.*").
		Joins("JOIN albums ON albums.id = memories.album_id").
		Where("memories.id = ? AND albums.user_id = ?", memoryID, userID).
		First(&memory).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Memory{}, ErrNotFound
	}
	return memory, err
}

// MemoryCreate verifies the caller owns the target album, then inserts the
// memory row and one photo row per staged upload in a single transaction.
// Staged blobs are enqueued for cleanup if the transaction fails.
func MemoryCreate(userID, albumID uint64, title, diaryEntry string, uploads []PhotoUpload) (Memory, error) {
	if _, err := AlbumGet(userID, albumID); err != nil {
		return Memory{}, err
	}
	memory := Memory{
		AlbumID:    albumID,
		Title:      title,
		DiaryEntry: diaryEntry,
	}
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&memory).Error; err != nil {
			return err
		}
		for _, u := range uploads {
			photo := Photo{
				MemoryID:  memory.ID,
				Path:      u.Path,
				ThumbPath: u.ThumbPath,
			}
			if err := tx.Create(&photo).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		enqueueBestEffort(uploadPaths(uploads)...)
		return Memory{}, err
	}
	return memory, nil
}

// MemoryGet returns the memory with its full photo set, ordered by creation.
func MemoryGet(userID, memoryID uint64) (Memory, error) {
	memory, err := memoryOwned(db.Instance, userID, memoryID)
	if err != nil {
		return Memory{}, err
	}
	err = db.Instance.
		Where("memory_id = ?", memoryID).
		Order("id").
		Find(&memory.Photos).Error
	return memory, err
}

// MemoryListForAlbum returns the album's memories, newest first, each with a
// derived cover locator. The per-memory cover reads are independent, so they
// fan out concurrently.
func MemoryListForAlbum(userID, albumID uint64) ([]MemorySummary, error) {
	if _, err := AlbumGet(userID, albumID); err != nil {
		return nil, err
	}
	memories := []Memory{}
	if err := db.Instance.
		Where("album_id = ?", albumID).
		Order("created_at DESC, id DESC").
		Find(&memories).Error; err != nil {
		return nil, err
	}
	summaries := make([]MemorySummary, len(memories))
	var wg sync.WaitGroup
	for i := range memories {
		summaries[i].Memory = memories[i]
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var photo Photo
			if err := db.Instance.
				Where("memory_id = ?", summaries[i].ID).
				Order("id").
				First(&photo).Error; err == nil {
				summaries[i].CoverPath = photo.Path
			}
		}(i)
	}
	wg.Wait()
	return summaries, nil
}

// MemoryUpdate implements the additive update protocol: title and diary
// entry are written unconditionally, the listed photos are removed, and the
// staged uploads are attached. Photos not listed for deletion are untouched.
// All row mutations happen in one transaction; removed photo blobs are
// enqueued inside it, staged blobs are enqueued only if it fails.
func MemoryUpdate(userID, memoryID uint64, title, diaryEntry string, photoIDsToDelete []uint64, uploads []PhotoUpload) (Memory, error) {
	if _, err := memoryOwned(db.Instance, userID, memoryID); err != nil {
		return Memory{}, err
	}
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"title":       title,
			"diary_entry": diaryEntry,
		}
		if err := tx.Model(&Memory{}).Where("id = ?", memoryID).Updates(updates).Error; err != nil {
			return err
		}
		if len(photoIDsToDelete) > 0 {
			// Scoped to this memory: ids belonging to other memories are ignored
			var victims []Photo
			if err := tx.
				Where("memory_id = ? AND id IN ?", memoryID, photoIDsToDelete).
				Find(&victims).Error; err != nil {
				return err
			}
			if len(victims) > 0 {
				paths := []string{}
				ids := []uint64{}
				for _, v := range victims {
					paths = append(paths, v.Path, v.ThumbPath)
					ids = append(ids, v.ID)
				}
				if err := EnqueueBlobCleanup(tx, paths...); err != nil {
					return err
				}
				if err := tx.Delete(&Photo{}, ids).Error; err != nil {
					return err
				}
			}
		}
		for _, u := range uploads {
			photo := Photo{
				MemoryID:  memoryID,
				Path:      u.Path,
				ThumbPath: u.ThumbPath,
			}
			if err := tx.Create(&photo).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		enqueueBestEffort(uploadPaths(uploads)...)
		return Memory{}, err
	}
	return MemoryGet(userID, memoryID)
}

// MemoryDelete mirrors the album cascade one level down: capture the photo
// locators, enqueue them, delete the memory row and let the foreign key
// cascade remove the photo rows, all in one transaction.
func MemoryDelete(userID, memoryID uint64) error {
	return db.Instance.Transaction(func(tx *gorm.DB) error {
		if _, err := memoryOwned(tx, userID, memoryID); err != nil {
			return err
		}
		var photos []Photo
		if err := tx.Where("memory_id = ?", memoryID).Find(&photos).Error; err != nil {
			return err
		}
		paths := []string{}
		for _, p := range photos {
			paths = append(paths, p.Path, p.ThumbPath)
		}
		if err := EnqueueBlobCleanup(tx, paths...); err != nil {
			return err
		}
		return tx.Delete(&Memory{}, memoryID).Error
	})
}
