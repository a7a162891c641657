package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Response struct {
	Msg string `json:"msg"`
}

// serverError hides the details from the caller; the log has them.
func serverError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("server error")
	c.JSON(http.StatusInternalServerError, Response{"Server Error"})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{msg})
}
