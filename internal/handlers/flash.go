package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
)

const flashCookie = "flash"

// setFlash stores a one-shot message shown on the next rendered page. The
// cookie carries the same Secure attribute as the session cookie.
func setFlash(c *gin.Context, message string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, base64.URLEncoding.EncodeToString([]byte(message)), 60, "/", "", secure, true)
}

func popFlash(c *gin.Context, secure bool) string {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", secure, true)

	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return ""
	}
	return string(decoded)
}
