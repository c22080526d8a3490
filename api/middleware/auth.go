package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/wedplan-backend/api/responses"
	pkgauth "github.com/angelmondragon/wedplan-backend/pkg/auth"
	"github.com/angelmondragon/wedplan-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

// Auth validates an operator bearer token and seeds the request context with
// its subject and role.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxSubject, claims.Subject)
			ctx = context.WithValue(ctx, ctxRole, claims.Role.String())
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"actor":      claims.Subject,
					"actor_role": claims.Role.String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
