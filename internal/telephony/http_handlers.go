package telephony

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"

	"bizdash/internal/metrics"
	"bizdash/pkg/logger"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody bounds how much of a webhook body is read.
const maxWebhookBody = 1 << 20

// CaptureHandler serves the call webhook. It answers 200 once the event is
// stored, 403 when the signature does not verify and 500 otherwise.
type CaptureHandler struct {
	Ingestor *Ingestor
}

func (h CaptureHandler) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Error("call webhook body read failed", "err", err)
		metrics.ObserveWebhook(string(RejectDecodeOrDBError))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Webhook error"})
		return
	}

	res, err := h.Ingestor.Ingest(c.Request.Context(), WebhookRequest{
		Body:      body,
		Signature: c.GetHeader(HeaderSignature),
	})
	switch {
	case errors.Is(err, ErrBadSignature):
		metrics.ObserveWebhook(string(RejectBadSignature))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid signature"})
		return
	case err != nil:
		metrics.ObserveWebhook(string(RejectDecodeOrDBError))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Webhook error"})
		return
	}

	metrics.ObserveWebhook(string(res.State))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TokenHandler serves client access tokens to a fixed set of identities.
type TokenHandler struct {
	Issuer *TokenIssuer
	// Users maps identity to its shared secret.
	Users map[string]string
}

type tokenRequest struct {
	Identity any `json:"identity"`
	Password any `json:"password"`
}

// CORS sets the token service's cross-origin headers on every response.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Next()
	}
}

func (h TokenHandler) Get(c *gin.Context) {
	identity := c.Query("identity")
	password := c.Query("password")
	if identity == "" || password == "" {
		c.String(http.StatusUnauthorized, "Missing credentials")
		return
	}
	h.respond(c, identity, password)
}

func (h TokenHandler) Post(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.FromGin(c).Warn("token request decode failed", "err", err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}
	h.respond(c, stringify(req.Identity), stringify(req.Password))
}

func (h TokenHandler) Options(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h TokenHandler) respond(c *gin.Context, identity, password string) {
	if !h.valid(identity, password) {
		logger.FromGin(c).Warn("token request rejected", "identity", identity)
		c.String(http.StatusUnauthorized, "Invalid credentials")
		return
	}
	tok, err := h.Issuer.Issue(identity)
	if err != nil {
		logger.FromGin(c).Error("access token issue failed", "err", err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}
	c.Data(http.StatusOK, "text/plain", []byte(tok))
}

func (h TokenHandler) valid(identity, password string) bool {
	expected, ok := h.Users[identity]
	if !ok || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(password)) == 1
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
