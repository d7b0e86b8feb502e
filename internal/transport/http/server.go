package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirehub/internal/config"
	"github.com/vovakirdan/wirehub/internal/core"
)

// NewServer builds the HTTP server exposing /ws, /publish and /health.
// The websocket route sits on a plain ServeMux because gin's writer refuses
// to hijack after the upgrade response is written.
func NewServer(registry *core.Registry, hub *core.Hub, router *core.Router, authenticator Authenticator, cfg *config.Config, logger *zerolog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(logger))

	engine.GET("/health", healthHandler(registry))

	publish := NewPublishHandlers(hub, router, logger)
	engine.POST("/publish", PublishSecretMiddleware(cfg.PublishSecret, logger), publish.Publish)

	mux := http.NewServeMux()
	mux.Handle("/ws", NewWSHandler(router, authenticator, cfg, logger))
	mux.Handle("/", engine)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(registry *core.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{OK: true, Clients: registry.Len()})
	}
}
