package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Middleware provides HTTP middleware for authentication
type Middleware struct {
	service *Service
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{
		service: service,
	}
}

// RequireAuth is middleware that requires a valid session token
// The user is extracted from the token and added to the request context
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract token from Authorization header
		token := extractBearerToken(r)
		if token == "" {
			writeUnauthorized(w, "missing authorization token")
			return
		}

		// Validate token and get user
		user, err := m.service.ValidateSession(token)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		// Add user to context
		ctx := SetUserInContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuthFunc adapts RequireAuth for a single handler function.
func (m *Middleware) RequireAuthFunc(next http.HandlerFunc) http.Handler {
	return m.RequireAuth(next)
}

// BearerToken returns the session token of r, or "".
func BearerToken(r *http.Request) string {
	return extractBearerToken(r)
}

// extractBearerToken extracts the token from the Authorization header
// Expects format: "Bearer <token>"
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error": %q}`, msg)
}
