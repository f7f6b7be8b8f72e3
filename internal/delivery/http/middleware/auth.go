package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "communityhub/internal/delivery/http/helpers"
	"communityhub/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userID"

// SetUserID returns a context carrying the authenticated user ID.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID, if RequireAuth ran.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// RequireAuth returns a wrapper that resolves the Bearer token to a user ID
// and stores it in the request context. Requests without a verifiable token
// get a 401 and never reach the handler.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	deny := func(w http.ResponseWriter, r *http.Request, reason string) {
		logger.Debug("request rejected", "path", r.URL.Path, "reason", reason)
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, reason)
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				deny(w, r, "missing bearer token")
				return
			}
			token := strings.TrimSpace(raw)
			if token == "" {
				deny(w, r, "missing bearer token")
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				deny(w, r, "invalid or expired token")
				return
			}
			next(w, r.WithContext(SetUserID(r.Context(), userID)))
		}
	}
}
