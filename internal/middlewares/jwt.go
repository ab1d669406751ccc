package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Yvann20/Flask/internal/models"
	"github.com/Yvann20/Flask/internal/services"
)

type subjectFieldType string

const subjectField subjectFieldType = "subjectField"

type AuthMiddlewareConfig struct {
	subject      string
	excludePaths []string
}

// AuthMiddleware accepts only bearer tokens issued to subject.
func AuthMiddleware(subject string) *AuthMiddlewareConfig {
	return &AuthMiddlewareConfig{subject: subject}
}

// WithExcludedPaths lists path prefixes served without a token.
func (a *AuthMiddlewareConfig) WithExcludedPaths(paths ...string) *AuthMiddlewareConfig {
	a.excludePaths = paths
	return a
}

func (a *AuthMiddlewareConfig) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, path := range a.excludePaths {
			if strings.HasPrefix(r.URL.Path, path) {
				next.ServeHTTP(w, r)
				return
			}
		}

		jwtService := GetServiceFromContext[models.JWTService](w, r, JwtServiceKey)
		if jwtService == nil {
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Cabeçalho Authorization obrigatório", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" || tokenString == authHeader {
			http.Error(w, "Token Bearer ausente", http.StatusUnauthorized)
			return
		}

		token, err := (*jwtService).ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, services.ErrTokenIsExpired) {
				http.Error(w, "Token expirado", http.StatusUnauthorized)
				return
			}

			http.Error(w, "Token inválido", http.StatusUnauthorized)
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject != a.subject {
			http.Error(w, "Acesso negado", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectField, subject)))
	})
}

// GetSubjectFromContext returns the token subject of an authenticated request.
func GetSubjectFromContext(r *http.Request) (string, bool) {
	subject, ok := r.Context().Value(subjectField).(string)
	return subject, ok
}
