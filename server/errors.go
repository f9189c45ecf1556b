package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"monkeybet/service"
)

// statusForError maps a service error onto an HTTP status
func statusForError(err error) int {
	switch {
	case service.IsAuthenticationFailure(err):
		return http.StatusUnauthorized
	case service.IsBadRequest(err):
		return http.StatusBadRequest
	case service.IsNotFound(err):
		return http.StatusNotFound
	case service.IsConflict(err):
		return http.StatusConflict
	case service.IsForbidden(err):
		return http.StatusForbidden
	case service.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the mapped status with a message safe to show users
func respondError(c *gin.Context, err error) {
	status := statusForError(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.Request.URL.Path,
			"error": err,
		}).Error("Unhandled service error")
		message = "internal error"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
