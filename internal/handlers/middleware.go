package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"familyledger/internal/apperrors"
	"familyledger/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserIDContextKey ContextKey = "userID"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens *security.TokenManager
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireAuth verifies the Authorization bearer token and puts the user id
// in the request context.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			respondError(w, r, apperrors.Unauthorized("missing authorization header"))
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			respondError(w, r, apperrors.Unauthorized("authorization header must be a bearer token"))
			return
		}

		userID, err := m.tokens.Verify(tokenStr)
		if err != nil {
			respondError(w, r, apperrors.Unauthorized("invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// UserIDFromContext retrieves the authenticated user id from the request
// context. The second result is false outside RequireAuth.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(int64)
	return userID, ok
}
