package storage

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"qrono/config"

	"github.com/google/uuid"
)

// StorageAPI is the blob store: opaque path-addressed locators, create,
// serve and delete-by-locator. Delete returns nil for an already-missing
// blob - the row-level state is authoritative and deletion is advisory.
type StorageAPI interface {
	Save(path string, reader io.Reader) (int64, error)
	Serve(path string, request *http.Request, writer http.ResponseWriter)
	Delete(path string) error
}

var instance StorageAPI

func Init() {
	if config.S3_BUCKET != "" {
		instance = NewS3Storage()
	} else {
		instance = NewDiskStorage(config.STORAGE_DIR)
	}
}

func Get() StorageAPI {
	if instance == nil {
		panic("storage not initialised")
	}
	return instance
}

// NewPath mints a fresh locator under the given prefix, keeping the original
// extension so mime types can be inferred when serving. Locators are
// unguessable and never reused.
func NewPath(prefix, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) > 10 {
		ext = ""
	}
	return prefix + "/" + uuid.NewString() + ext
}
