package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wedplan-backend/pkg/auth"
	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "wedplan", ExpirationMinutes: 10}

func mintTestToken(t *testing.T, cfg config.JWTConfig, role enums.StaffRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{Subject: "ops@example.com", Role: role})
	require.NoError(t, err)
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingOrInvalidToken(t *testing.T) {
	handler := Auth(testJWT, logger.Nop())(okHandler())

	for name, header := range map[string]string{
		"missing":      "",
		"empty bearer": "Bearer ",
		"garbage":      "Bearer invalid",
		"wrong secret": "Bearer " + mintTestToken(t, config.JWTConfig{Secret: "other", Issuer: "wedplan", ExpirationMinutes: 10}, enums.StaffRoleOperator),
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
		})
	}
}

func TestAuthSeedsContextFromClaims(t *testing.T) {
	var subject, role string
	handler := Auth(testJWT, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = SubjectFromContext(r.Context())
		role = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+mintTestToken(t, testJWT, enums.StaffRoleSupport))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ops@example.com", subject)
	require.Equal(t, "support", role)
}

func TestRequireRole(t *testing.T) {
	handler := Auth(testJWT, logger.Nop())(RequireRole(logger.Nop(), enums.StaffRoleOperator)(okHandler()))

	cases := []struct {
		role enums.StaffRole
		want int
	}{
		{enums.StaffRoleOperator, http.StatusOK},
		{enums.StaffRoleSupport, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.role.String(), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Authorization", "Bearer "+mintTestToken(t, testJWT, tc.role))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireRoleWithoutAuthIsForbidden(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRole(nil, enums.StaffRoleOperator)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "FORBIDDEN", errorCode(t, rec))
}
