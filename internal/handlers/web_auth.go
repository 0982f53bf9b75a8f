package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/polls-app/polls/internal/accounts"
	"github.com/polls-app/polls/internal/auth"
	"github.com/polls-app/polls/internal/middleware"
	"github.com/polls-app/polls/internal/models"
)

const badLoginMessage = "Please enter a correct username and password."

// AccountPageHandler serves the login, logout and signup pages.
type AccountPageHandler struct {
	accounts *accounts.Service
	tokens   *auth.TokenManager
	secure   bool
}

func NewAccountPageHandler(accounts *accounts.Service, tokens *auth.TokenManager, secure bool) *AccountPageHandler {
	return &AccountPageHandler{accounts: accounts, tokens: tokens, secure: secure}
}

func (h *AccountPageHandler) setSession(c *gin.Context, user *models.User) error {
	token, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, 0, "/", "", h.secure, true)
	return nil
}

func (h *AccountPageHandler) LoginPage(c *gin.Context) {
	data := pageData(c, h.accounts, "Log in", h.secure)
	data["Next"] = middleware.SafeNext(c.Query("next"), indexPath)
	c.HTML(http.StatusOK, "login.tmpl", data)
}

func (h *AccountPageHandler) Login(c *gin.Context) {
	next := middleware.SafeNext(c.PostForm("next"), indexPath)

	var input models.LoginRequest
	if err := c.ShouldBind(&input); err != nil {
		h.renderLogin(c, next, input.Login, badLoginMessage)
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), input.Login, input.Password)
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		h.renderLogin(c, next, input.Login, badLoginMessage)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to authenticate user")
		h.renderLogin(c, next, input.Login, "Login is temporarily unavailable.")
		return
	}

	if err := h.setSession(c, user); err != nil {
		log.Error().Err(err).Msg("Failed to issue session token")
		h.renderLogin(c, next, input.Login, "Login is temporarily unavailable.")
		return
	}

	c.Redirect(http.StatusFound, next)
}

func (h *AccountPageHandler) renderLogin(c *gin.Context, next, login, message string) {
	data := pageData(c, h.accounts, "Log in", h.secure)
	data["Next"] = next
	data["Login"] = login
	data["ErrorMessage"] = message
	c.HTML(http.StatusOK, "login.tmpl", data)
}

func (h *AccountPageHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secure, true)
	c.Redirect(http.StatusFound, indexPath)
}

func (h *AccountPageHandler) SignupPage(c *gin.Context) {
	data := pageData(c, h.accounts, "Sign up", h.secure)
	data["Form"] = models.RegisterRequest{}
	c.HTML(http.StatusOK, "signup.tmpl", data)
}

func (h *AccountPageHandler) Signup(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBind(&input); err != nil {
		fields := fieldErrors(err)
		if fields == nil {
			fields = map[string]string{"form": err.Error()}
		}
		h.renderSignup(c, input, fields)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), input)
	if errors.Is(err, accounts.ErrUserExists) {
		h.renderSignup(c, input, map[string]string{"username": "Username or email already exists."})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to register user")
		h.renderSignup(c, input, map[string]string{"form": "Sign up is temporarily unavailable."})
		return
	}

	if err := h.setSession(c, user); err != nil {
		log.Error().Err(err).Msg("Failed to issue session token")
	}
	c.Redirect(http.StatusFound, indexPath)
}

func (h *AccountPageHandler) renderSignup(c *gin.Context, form models.RegisterRequest, errs map[string]string) {
	form.Password = ""
	data := pageData(c, h.accounts, "Sign up", h.secure)
	data["Form"] = form
	data["Errors"] = errs
	c.HTML(http.StatusOK, "signup.tmpl", data)
}
