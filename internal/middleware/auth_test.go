package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoangdanh165/devplanner/internal/model"
)

type stubValidator struct {
	claims *model.AuthClaims
}

func (v *stubValidator) ValidateToken(token string, expectedType string) (*model.AuthClaims, error) {
	if v.claims == nil || token != "good-token" || expectedType != "access" {
		return nil, model.ErrUnauthorized
	}
	return v.claims, nil
}

func okHandler(t *testing.T, wantClaims *model.AuthClaims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantClaims != nil {
			claims, ok := ClaimsFromContext(r.Context())
			require.True(t, ok)
			require.Equal(t, wantClaims, claims)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	claims := &model.AuthClaims{UserID: "u-1", Role: "user", Status: model.StatusActive}
	m := NewAuthMiddleware(&stubValidator{claims: claims})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "no header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "not a bearer scheme", authHeader: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "bad token", authHeader: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "valid token", authHeader: "Bearer good-token", wantStatus: http.StatusOK},
		{name: "case-insensitive scheme", authHeader: "bearer good-token", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			m.RequireAuth(okHandler(t, claims)).ServeHTTP(rec, req)
			require.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireActive(t *testing.T) {
	t.Parallel()

	t.Run("active account passes", func(t *testing.T) {
		t.Parallel()

		claims := &model.AuthClaims{UserID: "u-1", Role: "user", Status: model.StatusActive}
		m := NewAuthMiddleware(&stubValidator{claims: claims})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()

		m.RequireAuth(m.RequireActive(okHandler(t, nil))).ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("restricted account gets 403 BANNED", func(t *testing.T) {
		t.Parallel()

		claims := &model.AuthClaims{UserID: "u-1", Role: "user", Status: model.StatusBanned}
		m := NewAuthMiddleware(&stubValidator{claims: claims})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()

		m.RequireAuth(m.RequireActive(okHandler(t, nil))).ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "BANNED")
	})

	t.Run("missing claims means unauthenticated", func(t *testing.T) {
		t.Parallel()

		m := NewAuthMiddleware(&stubValidator{})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		m.RequireActive(okHandler(t, nil)).ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRoles(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, role string, allowed ...string) int {
		t.Helper()

		claims := &model.AuthClaims{UserID: "u-1", Role: role, Status: model.StatusActive}
		m := NewAuthMiddleware(&stubValidator{claims: claims})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()

		m.RequireAuth(m.RequireRoles(allowed...)(okHandler(t, nil))).ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, run(t, "admin", "user", "admin"))
	require.Equal(t, http.StatusOK, run(t, "User", "user"), "role comparison is case-insensitive")
	require.Equal(t, http.StatusForbidden, run(t, "guest", "user", "admin"))
	require.Equal(t, http.StatusForbidden, run(t, "", "user"))
}
