package models

import (
	"errors"

	"qrono/db"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUsername  = errors.New("username already exists")
)

func Init() {
	for _, model := range []interface{}{
		&User{},
		&Album{},
		&Memory{},
		&Photo{},
		&PendingBlob{},
	} {
		if err := db.Instance.AutoMigrate(model); err != nil {
			panic(err)
		}
	}
}
