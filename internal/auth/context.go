package auth

import (
	"context"
	"errors"
)

type identityKey struct{}

type identity struct {
	userID string
	role   string
}

var errNoSession = errors.New("auth: no session in context")

// WithIdentity attaches the verified session subject to ctx.
func WithIdentity(ctx context.Context, userID, role string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity{userID: userID, role: role})
}

func fromContext(ctx context.Context) (identity, bool) {
	id, ok := ctx.Value(identityKey{}).(identity)
	return id, ok
}

func UserID(ctx context.Context) (string, error) {
	if id, ok := fromContext(ctx); ok && id.userID != "" {
		return id.userID, nil
	}
	return "", errNoSession
}

func Role(ctx context.Context) (string, error) {
	if id, ok := fromContext(ctx); ok && id.role != "" {
		return id.role, nil
	}
	return "", errNoSession
}
