package auth

import (
	"net/http"

	"qrono/models"

	"github.com/gin-gonic/gin"
)

// HandlerFunc receives the authenticated user, already loaded from the DB.
type HandlerFunc func(c *gin.Context, user *models.User)

// Router is a wrapper that adds token checks + User pre-loading
type Router struct {
	Base *gin.Engine
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc) {
	token := c.GetHeader(TokenHeader)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "No token, authorization denied"})
		return
	}
	userID, err := ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "Token is not valid"})
		return
	}
	user, err := models.UserGet(userID)
	if err != nil {
		// Token outlived its account
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "Token is not valid"})
		return
	}
	handler(c, &user)
}

func (cr *Router) GET(path string, handler HandlerFunc) {
	cr.Base.GET(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}

func (cr *Router) POST(path string, handler HandlerFunc) {
	cr.Base.POST(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}

func (cr *Router) PUT(path string, handler HandlerFunc) {
	cr.Base.PUT(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}

func (cr *Router) DELETE(path string, handler HandlerFunc) {
	cr.Base.DELETE(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}
