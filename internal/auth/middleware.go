package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "

	// LoginPath is where unauthenticated dashboard requests are sent.
	LoginPath = "/login"
)

// SessionToken returns the raw session token from the cookie, or from an
// Authorization bearer header when no cookie is present.
func SessionToken(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	if strings.HasPrefix(raw, bearerPrefix) {
		return strings.TrimPrefix(raw, bearerPrefix)
	}
	return ""
}

// RequireSession verifies the session and injects identity into the request
// context. Requests without a valid session are redirected to the login page.
// It does not perform role checks; those belong to internal/rbac.
func RequireSession(m *Manager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := SessionToken(c, cookieName)
		if tok == "" {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}

		claims, err := m.Verify(tok, time.Now())
		if err != nil {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}

		ctx := WithIdentity(c.Request.Context(), claims.UserID, claims.Role)
		c.Request = c.Request.WithContext(ctx)

		// Also store on gin context for handler convenience.
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// SetSessionCookie stores token as an HTTP-only cookie that lives as long as the session.
func SetSessionCookie(c *gin.Context, name, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, name string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", secure, true)
}
