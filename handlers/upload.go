package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"strings"

	"qrono/config"
	"qrono/db"
	"qrono/models"
	"qrono/storage"
	"qrono/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Mirrors the original API's per-request photo limit
const maxPhotoFiles = 10

// BlobURLPrefix is where stored blobs are exposed over HTTP.
const BlobURLPrefix = "/uploads/"

func blobURL(path string) *string {
	if path == "" {
		return nil
	}
	url := BlobURLPrefix + path
	return &url
}

// stageUpload writes the uploaded file to the blob store under a fresh
// locator and, optionally, generates and stores a thumbnail. A failed
// thumbnail is logged and skipped - the photo itself still counts.
func stageUpload(fh *multipart.FileHeader, prefix string, withThumb bool) (models.PhotoUpload, error) {
	file, err := fh.Open()
	if err != nil {
		return models.PhotoUpload{}, err
	}
	defer file.Close()

	upload := models.PhotoUpload{Path: storage.NewPath(prefix, fh.Filename)}
	if _, err := storage.Get().Save(upload.Path, file); err != nil {
		return models.PhotoUpload{}, err
	}
	if !withThumb {
		return upload, nil
	}

	thumbSrc, err := fh.Open()
	if err != nil {
		return upload, nil
	}
	defer thumbSrc.Close()
	var buf bytes.Buffer
	if _, err := utils.CreateThumb(uint(config.THUMB_SIZE), thumbSrc, &buf); err != nil {
		log.Warn().Err(err).Str("file", fh.Filename).Msg("thumbnail generation failed")
		return upload, nil
	}
	thumbPath := storage.NewPath("thumbs", ".jpg")
	if _, err := storage.Get().Save(thumbPath, &buf); err != nil {
		log.Warn().Err(err).Str("path", thumbPath).Msg("thumbnail save failed")
		return upload, nil
	}
	upload.ThumbPath = thumbPath
	return upload, nil
}

// stagePhotos stages every file; if one fails mid-loop the already staged
// blobs are enqueued for cleanup so nothing is silently orphaned.
func stagePhotos(files []*multipart.FileHeader) ([]models.PhotoUpload, error) {
	uploads := []models.PhotoUpload{}
	for _, fh := range files {
		upload, err := stageUpload(fh, "photos", true)
		if err != nil {
			discardUploads(uploads)
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func discardUploads(uploads []models.PhotoUpload) {
	paths := []string{}
	for _, u := range uploads {
		paths = append(paths, u.Path, u.ThumbPath)
	}
	discardPaths(paths...)
}

func discardPaths(paths ...string) {
	if err := models.EnqueueBlobCleanup(db.Instance, paths...); err != nil {
		log.Error().Err(err).Strs("paths", paths).Msg("failed to enqueue blob cleanup")
	}
}

// ServeBlob streams a stored blob. Locators are unguessable UUID paths, so
// like the original's static /uploads directory this endpoint is public.
func ServeBlob(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" || strings.Contains(path, "..") {
		c.Status(http.StatusNotFound)
		return
	}
	storage.Get().Serve(path, c.Request, c.Writer)
}
