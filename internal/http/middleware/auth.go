package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"ticketscan/backend/internal/auth"
)

type contextKey string

const loginKey contextKey = "login"

func LoginFromContext(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(loginKey).(string)
	return val, ok && val != ""
}

// AuthMiddleware requires a bearer access token signed with secret. An empty secret disables
// the check.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing Authorization")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				unauthorized(w, "invalid Authorization")
				return
			}
			claims, err := auth.ParseAccessToken(secret, parts[1])
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), loginKey, claims.Login)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": message})
}
