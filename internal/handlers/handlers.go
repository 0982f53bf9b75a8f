package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polls-app/polls/internal/accounts"
	"github.com/polls-app/polls/internal/auth"
	"github.com/polls-app/polls/internal/clock"
	"github.com/polls-app/polls/internal/database"
	"github.com/polls-app/polls/internal/notify"
	"github.com/polls-app/polls/internal/polls"
)

// Deps are the services shared by every handler.
type Deps struct {
	DB        database.Service
	Questions *polls.Questions
	Ledger    *polls.Ledger
	Results   *polls.Results
	Accounts  *accounts.Service
	Tokens    *auth.TokenManager
	Notifier  notify.Notifier
	Clock     clock.Clock

	// SecureCookies marks session cookies Secure; off for plain-HTTP development.
	SecureCookies bool
}

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Question *QuestionHandler
	Admin    *AdminHandler
	Web      *WebHandler
	Account  *AccountPageHandler

	db database.Service
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(deps Deps) *Handler {
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}

	return &Handler{
		Auth:     NewAuthHandler(deps.Accounts, deps.Tokens),
		Question: NewQuestionHandler(deps),
		Admin:    NewAdminHandler(deps.Questions),
		Web:      NewWebHandler(deps),
		Account:  NewAccountPageHandler(deps.Accounts, deps.Tokens, deps.SecureCookies),
		db:       deps.DB,
	}
}

// Health reports database connectivity.
func (h *Handler) Health(c *gin.Context) {
	stats := h.db.Health(c.Request.Context())
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}
