package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported session token claims for this service.
type Claims struct {
	jwt.RegisteredClaims

	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
