package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/huddle-server/internal/auth"
	"github.com/vovakirdan/huddle-server/internal/config"
	"github.com/vovakirdan/huddle-server/internal/core"
	"github.com/vovakirdan/huddle-server/internal/store"
)

// NewServer builds the HTTP server: health check, WebSocket endpoint and
// the read-only room API. auditStore may be nil.
func NewServer(hub *core.Hub, auditStore store.AuditStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	jwtCfg := JWTConfigFrom(cfg)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, jwtCfg, logger)))

	rooms := NewRoomHandlers(hub, auditStore, logger)
	api := router.Group("/api")
	{
		api.GET("/rooms/:id", rooms.GetRoom)

		moderation := api.Group("/rooms/:id/moderation")
		if jwtCfg.Enabled() {
			moderation.Use(AuthMiddleware(jwtCfg, logger))
		}
		moderation.GET("", rooms.ListModeration)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// JWTConfigFrom extracts token settings from the server config.
func JWTConfigFrom(cfg *config.Config) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      auth.DefaultTTL,
		Required: cfg.JWTRequired,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
