package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HeaderPublishSecret carries the shared secret on publish requests.
const HeaderPublishSecret = "X-WS-Secret"

// PublishSecretMiddleware rejects requests whose X-WS-Secret header does not
// match secret. An empty secret rejects everything.
func PublishSecretMiddleware(secret string, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(HeaderPublishSecret)
		if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			logger.Debug().Str("remote", c.ClientIP()).Msg("publish rejected: bad secret")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
