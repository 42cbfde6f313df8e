package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"inkwell/internal/auth"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// userIDKey is the context key for the authenticated user's ID.
	userIDKey contextKey = "userID"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user's ID in the request context for downstream handlers.
func RequireAuth(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			userID, err := tokens.Verify(tokenStr)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromCtx extracts the authenticated user's ID from the request
// context. Returns uuid.Nil if the request is unauthenticated.
func UserIDFromCtx(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userIDKey).(uuid.UUID)
	return id
}
