package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janskylukas/bond-service/internal/domain"
	"github.com/janskylukas/bond-service/internal/logger"
)

// writeError maps domain errors to HTTP responses
func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var stateErr *domain.InvalidBondStateError

	switch {
	case errors.As(err, &verr):
		body := make(map[string][]string, len(verr.Fields))
		for field, msg := range verr.Fields {
			body[field] = []string{msg}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
	case errors.Is(err, domain.ErrEmptyPortfolio):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No bonds in portfolio."})
	case errors.Is(err, domain.ErrBondNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case errors.As(err, &stateErr):
		logger.FromContext(c.Request.Context()).Errorw("stored bond is invalid", "bond", stateErr.BondID, "reason", stateErr.Reason)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
	default:
		logger.FromContext(c.Request.Context()).Errorw("request error", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
	}
}
