package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/pkg/logger"
)

func writeError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// fail maps a service error to a response. notFound is the detail used for
// domain.ErrNotFound; infrastructure errors are logged and never echoed.
func fail(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.Header("WWW-Authenticate", "Bearer")
		writeError(c, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrDuplicateIdentity):
		writeError(c, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, notFound)
	default:
		logger.WithField("path", c.FullPath()).Errorf("request failed: %+v", err)
		writeError(c, http.StatusInternalServerError, "Internal server error")
	}
}
