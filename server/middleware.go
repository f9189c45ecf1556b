package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	userIDKey       = "userID"
)

// requestLogger tags each request with an id and logs its outcome
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		fields := log.Fields{
			"requestId": requestID,
			"method":    c.Request.Method,
			"path":      c.FullPath(),
			"status":    c.Writer.Status(),
			"duration":  time.Since(start),
		}
		if userID, ok := c.Get(userIDKey); ok {
			fields["userID"] = userID
		}

		entry := log.WithFields(fields)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Info("Request rejected")
		default:
			entry.Debug("Request handled")
		}
	}
}

// recovery turns handler panics into a 500 response
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithFields(log.Fields{
			"path":  c.Request.URL.Path,
			"panic": fmt.Sprint(recovered),
		}).Error("Recovered from handler panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}

// requireSession resolves the session cookie to a user id
func (h *Handler) requireSession(c *gin.Context) {
	raw, err := c.Cookie(h.config.SessionCookie)
	if err != nil || raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}

// requireAdmin rejects sessions that may not review withdrawals
func (h *Handler) requireAdmin(c *gin.Context) {
	if !h.withdrawals.IsAdmin(c.GetInt64(userIDKey)) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}
	c.Next()
}
