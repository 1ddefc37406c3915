package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/janskylukas/bond-service/internal/auth"
	"github.com/janskylukas/bond-service/internal/logger"
)

const ownerIDKey = "ownerID"

// requestLogger attaches the logger to the request and logs one line per request
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), s.Logger))

		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if ownerID, ok := c.Get(ownerIDKey); ok {
			fields = append(fields, "owner", ownerID)
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			s.Logger.Errorw("request failed", fields...)
		default:
			s.Logger.Infow("request", fields...)
		}
	}
}

// authRequired resolves the bearer token into the owner of the request
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}

		ownerID, err := s.Tokens.Verify(auth.BearerToken(header))
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token."})
			return
		}

		c.Set(ownerIDKey, ownerID)
		c.Request = c.Request.WithContext(auth.WithOwner(c.Request.Context(), ownerID))
		c.Next()
	}
}

func ownerID(c *gin.Context) uuid.UUID {
	id, _ := auth.OwnerFromContext(c.Request.Context())
	return id
}
