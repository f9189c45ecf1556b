// Package server exposes the wagering services over HTTP.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"monkeybet/config"
	"monkeybet/service"
)

// Dependencies are the services the HTTP handlers delegate to
type Dependencies struct {
	Session     service.SessionService
	Users       service.UserService
	Withdrawals service.WithdrawalService
}

// Handler holds the HTTP handlers
type Handler struct {
	session     service.SessionService
	users       service.UserService
	withdrawals service.WithdrawalService
	config      *config.Config
}

// NewRouter builds the gin engine with every route registered
func NewRouter(deps Dependencies) *gin.Engine {
	registerValidators()

	h := &Handler{
		session:     deps.Session,
		users:       deps.Users,
		withdrawals: deps.Withdrawals,
		config:      config.Get(),
	}

	r := gin.New()
	r.Use(recovery(), requestLogger())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	api.OPTIONS("/login", h.loginPreflight)
	api.POST("/login", h.login)
	api.POST("/logout", h.logout)

	authed := api.Group("", h.requireSession)
	authed.GET("/me", h.me)
	authed.POST("/games/play", h.play)
	authed.POST("/withdrawals", h.requestWithdrawal)

	admin := authed.Group("/admin", h.requireAdmin)
	admin.GET("/withdrawals", h.listWithdrawals)
	admin.POST("/withdrawals/:id/approve", h.approveWithdrawal)
	admin.POST("/withdrawals/:id/reject", h.rejectWithdrawal)

	return r
}
