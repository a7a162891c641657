package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"qrono/cleanup"
	"qrono/models"

	"github.com/gin-gonic/gin"
)

type PhotoInfo struct {
	ID        uint64  `json:"id"`
	MemoryID  uint64  `json:"memory_id"`
	ImageURL  string  `json:"image_url"`
	ThumbURL  *string `json:"thumb_url"`
	CreatedAt int64   `json:"created_at"`
}

type MemoryInfo struct {
	ID         uint64      `json:"id"`
	AlbumID    uint64      `json:"album_id"`
	Title      string      `json:"title"`
	DiaryEntry string      `json:"diary_entry"`
	CreatedAt  int64       `json:"created_at"`
	Photos     []PhotoInfo `json:"photos"`
}

func newMemoryInfo(memory models.Memory) MemoryInfo {
	info := MemoryInfo{
		ID:         memory.ID,
		AlbumID:    memory.AlbumID,
		Title:      memory.Title,
		DiaryEntry: memory.DiaryEntry,
		CreatedAt:  memory.CreatedAt,
		Photos:     []PhotoInfo{},
	}
	for _, p := range memory.Photos {
		url := blobURL(p.Path)
		imageURL := ""
		if url != nil {
			imageURL = *url
		}
		info.Photos = append(info.Photos, PhotoInfo{
			ID:        p.ID,
			MemoryID:  p.MemoryID,
			ImageURL:  imageURL,
			ThumbURL:  blobURL(p.ThumbPath),
			CreatedAt: p.CreatedAt,
		})
	}
	return info
}

func memoryParamID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		notFound(c, "Memory not found or you do not have permission.")
		return 0, false
	}
	return id, true
}

func memoryFiles(c *gin.Context) ([]models.PhotoUpload, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	files := form.File["photos"]
	if len(files) > maxPhotoFiles {
		badRequest(c, "A maximum of 10 photos can be uploaded at once.")
		return nil, false
	}
	uploads, err := stagePhotos(files)
	if err != nil {
		serverError(c, err)
		return nil, false
	}
	return uploads, true
}

func MemoryCreate(c *gin.Context, user *models.User) {
	title := c.PostForm("title")
	albumID, _ := strconv.ParseUint(c.PostForm("album_id"), 10, 64)
	if title == "" || albumID == 0 {
		badRequest(c, "Title and album ID are required.")
		return
	}
	uploads, ok := memoryFiles(c)
	if !ok {
		return
	}
	memory, err := models.MemoryCreate(user.ID, albumID, title, c.PostForm("diary_entry"), uploads)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Staged blobs have no rows to belong to
			discardUploads(uploads)
			notFound(c, "Album not found or you do not have permission.")
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "Memory created successfully", "memoryId": memory.ID})
}

func MemoryGet(c *gin.Context, user *models.User) {
	memoryID, ok := memoryParamID(c)
	if !ok {
		return
	}
	memory, err := models.MemoryGet(user.ID, memoryID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			notFound(c, "Memory not found or you do not have permission.")
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMemoryInfo(memory))
}

func MemoryUpdate(c *gin.Context, user *models.User) {
	memoryID, ok := memoryParamID(c)
	if !ok {
		return
	}
	photoIDsToDelete := []uint64{}
	if raw := c.PostForm("photosToDelete"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &photoIDsToDelete); err != nil {
			badRequest(c, "photosToDelete must be a JSON array of photo ids")
			return
		}
	}
	uploads, ok := memoryFiles(c)
	if !ok {
		return
	}
	memory, err := models.MemoryUpdate(
		user.ID,
		memoryID,
		c.PostForm("title"),
		c.PostForm("diary_entry"),
		photoIDsToDelete,
		uploads,
	)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			discardUploads(uploads)
			notFound(c, "Memory not found or you do not have permission to edit it.")
			return
		}
		serverError(c, err)
		return
	}
	cleanup.Notify()
	c.JSON(http.StatusOK, newMemoryInfo(memory))
}

func MemoryDelete(c *gin.Context, user *models.User) {
	memoryID, ok := memoryParamID(c)
	if !ok {
		return
	}
	if err := models.MemoryDelete(user.ID, memoryID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			notFound(c, "Memory not found or you do not have permission to delete it.")
			return
		}
		serverError(c, err)
		return
	}
	cleanup.Notify()
	c.JSON(http.StatusOK, Response{"Memory deleted successfully"})
}
