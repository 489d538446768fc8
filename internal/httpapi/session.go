package httpapi

import (
	"errors"
	"net/http"

	"bizdash/internal/auth"
	"bizdash/internal/users"
	"bizdash/pkg/logger"

	"github.com/gin-gonic/gin"
)

const dashboardPath = "/dashboard"

// LoginPage sends callers that already hold a valid session to the dashboard.
func (h Handlers) LoginPage(c *gin.Context) {
	if tok := auth.SessionToken(c, h.CookieName); tok != "" {
		if _, err := h.Auth.Verify(tok, h.clock()); err == nil {
			c.Redirect(http.StatusSeeOther, dashboardPath)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

// Login checks form credentials and issues the session cookie.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil || h.Users == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	f, ok := bindForm(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	u, err := users.Authenticate(ctx, h.Users, f.String("email"), f.String("password"))
	if errors.Is(err, users.ErrInvalidCredentials) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials."})
		return
	}
	if err != nil {
		logger.From(ctx).Error("login failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
		return
	}

	tok, err := h.Auth.Issue(h.clock(), u.ID, u.Email, u.Role)
	if err != nil {
		logger.From(ctx).Error("session issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
		return
	}

	logger.From(ctx).Info("user logged in", "user_id", u.ID, "role", u.Role)
	auth.SetSessionCookie(c, h.CookieName, tok, h.Auth.TTL(), h.SecureCookies)
	c.Redirect(http.StatusSeeOther, dashboardPath)
}

func (h Handlers) Logout(c *gin.Context) {
	auth.ClearSessionCookie(c, h.CookieName, h.SecureCookies)
	c.Redirect(http.StatusSeeOther, auth.LoginPath)
}
