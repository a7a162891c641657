package handlers

import (
	"errors"
	"net/http"

	"qrono/auth"
	"qrono/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type VerifyPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

func Register(c *gin.Context) {
	r := CredentialsRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		badRequest(c, "Please enter all fields")
		return
	}
	user, err := models.UserRegister(r.Username, r.Password)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) {
			badRequest(c, "Username already exists")
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "User registered successfully", "userId": user.ID})
}

func Login(c *gin.Context) {
	r := CredentialsRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		badRequest(c, "Please enter all fields")
		return
	}
	user, err := models.UserLogin(r.Username, r.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			badRequest(c, "Invalid credentials")
			return
		}
		serverError(c, err)
		return
	}
	token, err := auth.IssueToken(user.ID)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func Me(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, user)
}

// VerifyPassword re-checks the password without issuing a new token. It
// backs the client-side "private mode" flag only; no server-side capability
// changes hands here.
func VerifyPassword(c *gin.Context, user *models.User) {
	r := VerifyPasswordRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		badRequest(c, "Password is required")
		return
	}
	if !user.CheckPassword(r.Password) {
		badRequest(c, "The password you entered is incorrect.")
		return
	}
	c.JSON(http.StatusOK, Response{"Password verified successfully."})
}
