package auth

import "context"

type contextKey string

const usernameKey contextKey = "auth_username"

// ContextWithUsername stores the authenticated username in ctx.
func ContextWithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// UsernameFromContext returns the authenticated username, or "" when absent.
func UsernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}
