package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/hongminglow/contribution-be/internal/auth"
	"github.com/hongminglow/contribution-be/internal/http/respond"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (auth.Claims, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// token's username in the request context. A missing token is 401, a bad one 403.
func Authenticate(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verifier.VerifyToken(BearerToken(r))
			if err != nil {
				status := http.StatusForbidden
				msg := "Invalid or expired token"
				if errors.Is(err, auth.ErrUnauthenticated) {
					status = http.StatusUnauthorized
					msg = "Access token missing"
				}
				logger.DebugContext(r.Context(), "authentication failed",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("reason", auth.Kind(err)),
				)
				respond.Error(w, status, oops.GetPublic(err, msg))
				return
			}

			ctx := auth.ContextWithUsername(r.Context(), claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken returns the token from "Authorization: Bearer <token>", or "" when
// the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
