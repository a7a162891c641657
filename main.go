package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"qrono/auth"
	"qrono/cleanup"
	"qrono/config"
	"qrono/db"
	"qrono/handlers"
	"qrono/models"
	"qrono/storage"
	"qrono/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if config.DEBUG_MODE {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if config.JWT_SECRET == "" {
		log.Fatal().Msg("JWT_SECRET must be configured")
	}

	db.Init()
	models.Init()
	storage.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go cleanup.Run(ctx)

	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	router.MaxMultipartMemory = int64(config.MAX_UPLOAD_MB) << 20
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "PUT", "POST", "DELETE"},
		AllowHeaders:  []string{"Origin", "Content-Type", auth.TokenHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        30 * 24 * time.Hour,
	}))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{handlers.BlobURLPrefix})))
	}

	// Public routes
	router.POST("/api/auth/register", handlers.Register)
	router.POST("/api/auth/login", handlers.Login)
	router.GET(handlers.BlobURLPrefix+"*path", handlers.ServeBlob)

	// Token-checked routes
	authRouter := &auth.Router{Base: router}
	authRouter.GET("/api/auth/me", handlers.Me)
	authRouter.POST("/api/auth/verify-password", handlers.VerifyPassword)
	// Album handlers
	authRouter.POST("/api/albums", handlers.AlbumCreate)
	authRouter.GET("/api/albums", handlers.AlbumList)
	authRouter.GET("/api/albums/:id", handlers.AlbumGet)
	authRouter.GET("/api/albums/:id/memories", handlers.AlbumMemories)
	authRouter.PUT("/api/albums/:id", handlers.AlbumUpdate)
	authRouter.DELETE("/api/albums/:id", handlers.AlbumDelete)
	// Memory handlers
	authRouter.POST("/api/memories", handlers.MemoryCreate)
	authRouter.GET("/api/memories/:id", handlers.MemoryGet)
	authRouter.PUT("/api/memories/:id", handlers.MemoryUpdate)
	authRouter.DELETE("/api/memories/:id", handlers.MemoryDelete)

	var err error
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = router.Run(config.BIND_ADDRESS)
	}
	log.Fatal().Err(err).Msg("Server stopped")
}
