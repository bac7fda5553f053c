package api

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/pkg/logger"
)

const userKey = "tradedesk.user"

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request")
			return
		}
		entry.Debug("request")
	}
}

// requireUser resolves the Authorization header and stores the user on the context.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := reqCtx(c)
		defer cancel()
		u, err := s.d.Guard.Resolve(ctx, c.GetHeader("Authorization"))
		if err != nil {
			fail(c, err, "")
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	return c.MustGet(userKey).(*domain.User)
}

func (s *Server) loginThrottle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.d.LoginLimiter == nil {
			c.Next()
			return
		}
		ok, retry := s.d.LoginLimiter.Allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(retry.Seconds()))))
			writeError(c, http.StatusTooManyRequests, "Too many login attempts")
			return
		}
		c.Next()
	}
}
