package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/security"
	"github.com/username/stockfolio/src/utils"
)

type contextKey string

const sessionIDContextKey contextKey = "sessionID"

// GetSessionIDFromContext returns the session id placed by AuthMiddleware.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDContextKey).(string)
	return id, ok && id != ""
}

// WithSessionID returns a context carrying sessionID, as AuthMiddleware does.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}

// AuthMiddleware resolves the session token from the Authorization header, or from the
// token query parameter for websocket upgrades that cannot set headers.
func AuthMiddleware(authService *security.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ""
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			} else {
				tokenString = r.URL.Query().Get("token")
			}

			if tokenString == "" {
				logger.L.Debug("AuthMiddleware: session token missing", "path", r.URL.Path)
				utils.SendJSONError(w, "Session token required", http.StatusUnauthorized)
				return
			}

			sessionID, err := authService.ValidateToken(tokenString)
			if err != nil {
				logger.L.Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
				utils.SendJSONError(w, "Invalid or expired session token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}
