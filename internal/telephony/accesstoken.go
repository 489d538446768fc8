package telephony

import (
	"errors"
	"fmt"
	"time"

	"bizdash/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenNotConfigured = errors.New("telephony: access token credentials not configured")

const accessTokenContentType = "twilio-fpa;v=1"

type pushGrant struct {
	PushCredentialSID string `json:"push_credential_sid"`
}

type accessGrants struct {
	Identity string     `json:"identity"`
	Push     *pushGrant `json:"push,omitempty"`
}

type accessClaims struct {
	Grants accessGrants `json:"grants"`
	jwt.RegisteredClaims
}

// TokenIssuer mints client capability tokens signed with an API key secret.
type TokenIssuer struct {
	accountSID        string
	apiKeySID         string
	apiKeySecret      []byte
	pushCredentialSID string
	ttl               time.Duration
	now               func() time.Time
}

func NewTokenIssuer(cfg config.TwilioConfig) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{
		accountSID:        cfg.AccountSID,
		apiKeySID:         cfg.APIKeySID,
		apiKeySecret:      []byte(cfg.APIKeySecret),
		pushCredentialSID: cfg.PushCredentialSID,
		ttl:               ttl,
		now:               time.Now,
	}
}

// Issue returns a signed token for identity.
func (t *TokenIssuer) Issue(identity string) (string, error) {
	if t.accountSID == "" || t.apiKeySID == "" || len(t.apiKeySecret) == 0 {
		return "", ErrTokenNotConfigured
	}
	now := t.now().UTC()

	grants := accessGrants{Identity: identity}
	if t.pushCredentialSID != "" {
		grants.Push = &pushGrant{PushCredentialSID: t.pushCredentialSID}
	}

	claims := accessClaims{
		Grants: grants,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        fmt.Sprintf("%s-%d", t.apiKeySID, now.Unix()),
			Issuer:    t.apiKeySID,
			Subject:   t.accountSID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["cty"] = accessTokenContentType
	s, err := tok.SignedString(t.apiKeySecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return s, nil
}
