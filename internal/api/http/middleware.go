package http

import (
	"context"
	"net/http"
	"strings"

	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/security"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey struct{}

// WithClaims stores the authenticated caller on the request context.
func WithClaims(ctx context.Context, claims *security.UserClaims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFromContext returns the caller set by the auth middleware, or nil on public routes.
func ClaimsFromContext(ctx context.Context) *security.UserClaims {
	claims, _ := ctx.Value(contextKey{}).(*security.UserClaims)
	return claims
}

func userID(r *http.Request) uuid.UUID {
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return uuid.Nil
}

// authMiddleware enforces the security level configured for the matched route name.
func authMiddleware(tokens security.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := ""
			if route := mux.CurrentRoute(r); route != nil {
				name = route.GetName()
			}
			level := config.GetSecurityLevel(name)
			if level == config.SecurityPublic {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				writeErrorMessage(w, http.StatusUnauthorized, "authorization token is not provided")
				return
			}

			want := security.TokenTypeAccess
			if level == config.SecurityRefresh {
				want = security.TokenTypeRefresh
			}
			claims, err := tokens.ValidateTokenType(token, want)
			if err != nil {
				writeErrorMessage(w, http.StatusUnauthorized, "invalid token: "+err.Error())
				return
			}
			if level == config.SecurityAdmin && !claims.IsAdmin() {
				writeErrorMessage(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return ""
}
