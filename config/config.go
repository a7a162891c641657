package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	TLS_DOMAINS  = ""             // e.g. "example.com,example2.com"
	MYSQL_DSN    = ""             // MySQL will be used if this is set
	SQLITE_FILE  = ""             // SQLite will be used if MYSQL_DSN is not configured and this is set
	BIND_ADDRESS = "0.0.0.0:3001"
	DEBUG_MODE   = true
	JWT_SECRET   = "" // Required; the server refuses to start without it

	// Blob storage - S3 is used if S3_BUCKET is set, local disk otherwise
	STORAGE_DIR = "./uploads"
	S3_BUCKET   = ""
	S3_KEY      = ""
	S3_SECRET   = ""
	S3_REGION   = "us-east-1"
	S3_ENDPOINT = "" // For S3-compatible providers (MinIO, Spaces, etc)

	MAX_UPLOAD_MB        = 32  // Multipart memory limit per request
	THUMB_SIZE           = 400 // Longest side of generated photo thumbnails, in pixels
	CLEANUP_INTERVAL_SEC = 60  // How often the blob cleanup worker scans for pending deletions
)

func init() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("JWT_SECRET", &JWT_SECRET)
	readEnvString("STORAGE_DIR", &STORAGE_DIR)
	readEnvString("S3_BUCKET", &S3_BUCKET)
	readEnvString("S3_KEY", &S3_KEY)
	readEnvString("S3_SECRET", &S3_SECRET)
	readEnvString("S3_REGION", &S3_REGION)
	readEnvString("S3_ENDPOINT", &S3_ENDPOINT)
	readEnvInt("MAX_UPLOAD_MB", &MAX_UPLOAD_MB)
	readEnvInt("THUMB_SIZE", &THUMB_SIZE)
	readEnvInt("CLEANUP_INTERVAL_SEC", &CLEANUP_INTERVAL_SEC)
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
