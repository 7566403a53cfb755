package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/marisca-pt/marisca-backend/api/responses"
	pkgAuth "github.com/marisca-pt/marisca-backend/pkg/auth"
	"github.com/marisca-pt/marisca-backend/pkg/config"
	pkgerrors "github.com/marisca-pt/marisca-backend/pkg/errors"
	"github.com/marisca-pt/marisca-backend/pkg/logger"
)

const adminTokenHeader = "X-Admin-Token"

// OptionalAuth seeds the request context with claims when a valid bearer token
// is supplied. Requests without credentials proceed as guests; an unparsable
// token is logged and downgraded to guest rather than rejected, so checkout
// can still fall back to the supplied guest email.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				if logg != nil {
					logg.Warn(r.Context(), "auth.optional.invalid_token")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			if claims.Email != "" {
				ctx = WithUserEmail(ctx, claims.Email)
			}

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminToken guards back-office routes with a shared static token.
func RequireAdminToken(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			expected := strings.TrimSpace(cfg.Token)
			if expected == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access disabled"))
				return
			}

			supplied := strings.TrimSpace(r.Header.Get(adminTokenHeader))
			if supplied == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid admin token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
