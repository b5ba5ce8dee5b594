package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/purit/auth-api/internal/auth"
)

// TokenVerifier reports the user ID bound to a bearer token.
type TokenVerifier interface {
	Verify(token string) (userID string, ok bool)
}

// Authenticate attaches the decoded identity to the request context when a
// valid bearer token is present. A missing or invalid token never rejects the
// request; the request simply proceeds anonymously and only the me resolver
// later enforces that an identity exists.
func Authenticate(verifier TokenVerifier, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := verifier.Verify(parts[1])
			if !ok {
				logger.Warn().Msg("invalid bearer token, continuing anonymously")
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithIdentity(r.Context(), auth.Identity{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
