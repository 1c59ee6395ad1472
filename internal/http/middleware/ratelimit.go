package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/http/response"
	"github.com/yungbote/edutaxonomy-backend/internal/observability"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
	"github.com/yungbote/edutaxonomy-backend/internal/populate"
)

// Limiter returns an error wrapping populate.ErrRateLimited once a client is
// over its window.
type Limiter interface {
	Check(clientID string) error
}

// RateLimit rejects clients over their window with 429, keyed by client IP.
func RateLimit(l Limiter, m *observability.Metrics, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		err := l.Check(c.ClientIP())
		if err == nil {
			c.Next()
			return
		}
		m.IncRateLimited()
		if log != nil {
			log.Warn("Population rate limit exceeded", "client_ip", c.ClientIP(), "path", c.Request.URL.Path)
		}
		response.RespondAPIError(c, populate.APIError(catalog.Kind(c.Param("kind")), err))
		c.Abort()
	}
}
