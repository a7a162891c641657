package models

import (
	"errors"
	"strings"

	"qrono/db"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID        uint64 `gorm:"primaryKey" json:"id"`
	CreatedAt int64  `json:"created_at"`
	Username  string `gorm:"type:varchar(150);index:uniq_username,unique" json:"username"`
	Password  string `gorm:"type:varchar(100)" json:"-"` // bcrypt digest, never serialized
}

// UserRegister stores a new user with a bcrypt digest of the password.
// Returns ErrDuplicateUsername if the username is already taken.
func UserRegister(username, plainTextPassword string) (User, error) {
	var existing User
	if err := db.Instance.Where("username = ?", username).First(&existing).Error; err == nil {
		return User{}, ErrDuplicateUsername
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{
		Username: username,
		Password: string(hash),
	}
	if err := db.Instance.Create(&u).Error; err != nil {
		// The unique index is the real guard; the lookup above only narrows the race
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "Duplicate") {
			return User{}, ErrDuplicateUsername
		}
		return User{}, err
	}
	return u, nil
}

// UserLogin returns ErrInvalidCredentials for both an unknown username and a
// digest mismatch - callers cannot tell the two apart.
func UserLogin(username, plainTextPassword string) (User, error) {
	var u User
	if err := db.Instance.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !u.CheckPassword(plainTextPassword) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func UserGet(id uint64) (User, error) {
	var u User
	if err := db.Instance.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (u *User) CheckPassword(plainTextPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plainTextPassword)) == nil
}
