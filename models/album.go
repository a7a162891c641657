package models

import (
	"errors"

	"qrono/db"

	"gorm.io/gorm"
)

type Album struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	UserID      uint64 `gorm:"not null;index:user_album_created,priority:1" json:"user_id"`
	User        User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt   int64  `gorm:"index:user_album_created,priority:2" json:"created_at"`
	Title       string `gorm:"type:varchar(300)" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Visible     bool   `gorm:"not null;default:false" json:"visible"`
	CoverPath   string `gorm:"type:varchar(300)" json:"-"`
}

// AlbumPatch carries the fields a partial update may change. A nil slot
// leaves the corresponding column untouched.
type AlbumPatch struct {
	Title       *string
	Description *string
	Visible     *bool
	CoverPath   *string
}

// AlbumCreate inserts the album row. The cover blob, if any, must already be
// in the blob store; on insert failure the caller's staged cover is enqueued
// for cleanup here.
func AlbumCreate(userID uint64, title, description string, visible bool, coverPath string) (Album, error) {
	album := Album{
		UserID:      userID,
		Title:       title,
		Description: description,
		Visible:     visible,
		CoverPath:   coverPath,
	}
	if err := db.Instance.Create(&album).Error; err != nil {
		enqueueBestEffort(coverPath)
		return Album{}, err
	}
	return album, nil
}

// AlbumList returns the caller's albums, newest first.
func AlbumList(userID uint64) ([]Album, error) {
	albums := []Album{}
	err := db.Instance.
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&albums).Error
	return albums, err
}

// AlbumGet returns ErrNotFound both when the album is absent and when it
// belongs to someone else.
func AlbumGet(userID, albumID uint64) (Album, error) {
	var album Album
	err := db.Instance.Where("id = ? AND user_id = ?", albumID, userID).First(&album).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Album{}, ErrNotFound
	}
	return album, err
}

// AlbumUpdate applies the patch field by field. When the patch replaces the
// cover, the old cover blob is enqueued for deletion in the same transaction
// as the row update, so it is only cleaned up once the update is committed.
func AlbumUpdate(userID, albumID uint64, patch AlbumPatch) (Album, error) {
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		var album Album
		if err := tx.Where("id = ? AND user_id = ?", albumID, userID).First(&album).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		updates := map[string]interface{}{}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.Visible != nil {
			updates["visible"] = *patch.Visible
		}
		if patch.CoverPath != nil {
			updates["cover_path"] = *patch.CoverPath
			if album.CoverPath != "" {
				if err := EnqueueBlobCleanup(tx, album.CoverPath); err != nil {
					return err
				}
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&Album{}).Where("id = ?", albumID).Updates(updates).Error
	})
	if err != nil {
		if patch.CoverPath != nil && !errors.Is(err, ErrNotFound) {
			// The staged new cover is orphaned now that the update failed
			enqueueBestEffort(*patch.CoverPath)
		}
		return Album{}, err
	}
	return AlbumGet(userID, albumID)
}

// AlbumDelete removes the album and, via the foreign-key cascade, every
// memory and photo under it, all in one transaction. Every blob locator the
// subtree referenced (cover, photos, thumbnails) is captured and enqueued in
// that same transaction; the actual blob deletion happens after commit and
// is advisory - the row deletion is authoritative.
func AlbumDelete(userID, albumID uint64) error {
	return db.Instance.Transaction(func(tx *gorm.DB) error {
		var album Album
		if err := tx.Where("id = ? AND user_id = ?", albumID, userID).First(&album).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var photos []Photo
		if err := tx.
			Select("photos.*").
			Joins("JOIN memories ON memories.id = photos.memory_id").
			Where("memories.album_id = ?", albumID).
			Find(&photos).Error; err != nil {
			return err
		}
		paths := []string{album.CoverPath}
		for _, p := range photos {
			paths = append(paths, p.Path, p.ThumbPath)
		}
		if err := EnqueueBlobCleanup(tx, paths...); err != nil {
			return err
		}
		return tx.Delete(&Album{}, albumID).Error
	})
}
