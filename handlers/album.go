package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"qrono/cleanup"
	"qrono/models"

	"github.com/gin-gonic/gin"
)

type AlbumInfo struct {
	ID            uint64  `json:"id"`
	UserID        uint64  `json:"user_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Visible       bool    `json:"visible"`
	CoverImageURL *string `json:"cover_image_url"`
	CreatedAt     int64   `json:"created_at"`
}

type MemorySummaryInfo struct {
	ID            uint64  `json:"id"`
	AlbumID       uint64  `json:"album_id"`
	Title         string  `json:"title"`
	DiaryEntry    string  `json:"diary_entry"`
	CoverImageURL *string `json:"cover_image_url"`
	CreatedAt     int64   `json:"created_at"`
}

func newAlbumInfo(album models.Album) AlbumInfo {
	return AlbumInfo{
		ID:            album.ID,
		UserID:        album.UserID,
		Title:         album.Title,
		Description:   album.Description,
		Visible:       album.Visible,
		CoverImageURL: blobURL(album.CoverPath),
		CreatedAt:     album.CreatedAt,
	}
}

func paramID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		notFound(c, "Album not found.")
		return 0, false
	}
	return id, true
}

func AlbumCreate(c *gin.Context, user *models.User) {
	title := c.PostForm("title")
	if title == "" {
		badRequest(c, "Title is required")
		return
	}
	coverPath := ""
	if fh, err := c.FormFile("cover_image"); err == nil {
		// Blob first; the locator is only persisted after a confirmed write
		upload, err := stageUpload(fh, "covers", false)
		if err != nil {
			serverError(c, err)
			return
		}
		coverPath = upload.Path
	}
	album, err := models.AlbumCreate(
		user.ID,
		title,
		c.PostForm("description"),
		c.PostForm("visible") == "true",
		coverPath,
	)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAlbumInfo(album))
}

func AlbumList(c *gin.Context, user *models.User) {
	albums, err := models.AlbumList(user.ID)
	if err != nil {
		serverError(c, err)
		return
	}
	result := []AlbumInfo{}
	for _, album := range albums {
		result = append(result, newAlbumInfo(album))
	}
	c.JSON(http.StatusOK, result)
}

func AlbumGet(c *gin.Context, user *models.User) {
	albumID, ok := paramID(c)
	if !ok {
		return
	}
	album, err := models.AlbumGet(user.ID, albumID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			notFound(c, "Album not found or you do not have permission.")
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAlbumInfo(album))
}

func AlbumMemories(c *gin.Context, user *models.User) {
	albumID, ok := paramID(c)
	if !ok {
		return
	}
	summaries, err := models.MemoryListForAlbum(user.ID, albumID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			notFound(c, "Album not found.")
			return
		}
		serverError(c, err)
		return
	}
	result := []MemorySummaryInfo{}
	for _, s := range summaries {
		result = append(result, MemorySummaryInfo{
			ID:            s.ID,
			AlbumID:       s.AlbumID,
			Title:         s.Title,
			DiaryEntry:    s.DiaryEntry,
			CoverImageURL: blobURL(s.CoverPath),
			CreatedAt:     s.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, result)
}

func AlbumUpdate(c *gin.Context, user *models.User) {
	albumID, ok := paramID(c)
	if !ok {
		return
	}
	patch := models.AlbumPatch{}
	if title, ok := c.GetPostForm("title"); ok {
		patch.Title = &title
	}
	if description, ok := c.GetPostForm("description"); ok {
		patch.Description = &description
	}
	if visible, ok := c.GetPostForm("visible"); ok {
		v := visible == "true"
		patch.Visible = &v
	}
	if fh, err := c.FormFile("cover_image"); err == nil {
		upload, err := stageUpload(fh, "covers", false)
		if err != nil {
			serverError(c, err)
			return
		}
		patch.CoverPath = &upload.Path
	}
	album, err := models.AlbumUpdate(user.ID, albumID, patch)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			notFound(c, "Album not found or permission denied.")
			return
		}
		serverError(c, err)
		return
	}
	cleanup.Notify()
	c.JSON(http.StatusOK, newAlbumInfo(album))
}

func AlbumDelete(c *gin.Context, user *models.User) {
	albumID, ok := paramID(c)
	if !ok {
		return
	}
	if err := models.AlbumDelete(user.ID, albumID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			notFound(c, "Album not found.")
			return
		}
		serverError(c, err)
		return
	}
	cleanup.Notify()
	c.JSON(http.StatusOK, Response{"Album and all associated content deleted successfully"})
}
