package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/repo"
)

func loginToken(t *testing.T, svc *Service) string {
	t.Helper()
	_, err := svc.Register(context.Background(), "Flora", "flora@example.com", "sup3rsecret", "")
	require.NoError(t, err)
	result, err := svc.Login(context.Background(), "flora@example.com", "sup3rsecret")
	require.NoError(t, err)
	return result.AccessToken
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	svc := newTestService(t, newFakeUserStore())
	mw := Middleware{Service: svc}

	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuthPopulatesIdentity(t *testing.T) {
	svc := newTestService(t, newFakeUserStore())
	token := loginToken(t, svc)
	mw := Middleware{Service: svc}

	var gotRole string
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := common.UserID(r.Context())
		require.True(t, ok)
		gotRole, _ = common.Role(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, repo.RoleCustomer, gotRole)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(repo.RoleStaff, repo.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	req = req.WithContext(common.WithRole(req.Context(), repo.RoleCustomer))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/staff", nil)
	req = req.WithContext(common.WithRole(req.Context(), repo.RoleAdmin))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestAuthenticateAllowsAnonymous(t *testing.T) {
	svc := newTestService(t, newFakeUserStore())
	mw := Middleware{Service: svc}

	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := common.UserID(r.Context())
		require.False(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/public", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
