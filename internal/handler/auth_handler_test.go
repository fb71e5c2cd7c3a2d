package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hoangdanh165/devplanner/internal/model"
	"github.com/hoangdanh165/devplanner/internal/service"
)

const testCookieName = "refresh_token"

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]model.User{}}
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *fakeUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *fakeUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, userID string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	s.users[userID] = u
	return nil
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]string{}}
}

func (s *fakeTokenStore) Store(_ context.Context, token string, userID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
	return nil
}

func (s *fakeTokenStore) Validate(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.tokens[token]
	if !ok {
		return "", model.ErrTokenNotFound
	}
	return userID, nil
}

func (s *fakeTokenStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *fakeTokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, owner := range s.tokens {
		if owner == userID {
			delete(s.tokens, token)
		}
	}
	return nil
}

func (s *fakeTokenStore) StoreReset(_ context.Context, _ string, _ string, _ time.Time) error {
	return nil
}

type noopRecorder struct {
	mu        sync.Mutex
	signIns   []string
	refreshes []string
}

func (r *noopRecorder) RecordSignIn(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signIns = append(r.signIns, provider)
}

func (r *noopRecorder) RecordRefresh(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes = append(r.refreshes, outcome)
}

func newTestAuthHandler(t *testing.T) (*AuthHandler, *noopRecorder) {
	t.Helper()

	svc, err := service.NewAuthService("test-secret", 15*time.Minute, 24*time.Hour, newFakeUserStore(), newFakeTokenStore())
	require.NoError(t, err)

	metrics := &noopRecorder{}
	return NewAuthHandler(svc, nil, nil, testCookieName, false, metrics), metrics
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	t.Fatal("no refresh cookie set")
	return nil
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) model.SessionPayload {
	t.Helper()

	var envelope struct {
		Success bool                 `json:"success"`
		Data    model.SessionPayload `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

func signUp(t *testing.T, h *AuthHandler) (model.SessionPayload, *http.Cookie) {
	t.Helper()

	body := `{"email":"dana@example.com","fullName":"Dana Dev","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/sign-up", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SignUp(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	return decodeSession(t, rec), refreshCookie(t, rec)
}

func TestAuthHandlerSignUpSetsCookie(t *testing.T) {
	t.Parallel()

	h, metrics := newTestAuthHandler(t)
	session, cookie := signUp(t, h)

	require.NotEmpty(t, session.AccessToken)
	require.Equal(t, "user", session.Role)
	require.Equal(t, model.StatusActive, session.Status)

	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, "/api/v1/users", cookie.Path)
	require.Equal(t, []string{model.ProviderLocal}, metrics.signIns)
}

func TestAuthHandlerSignInWrongPassword(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t)
	signUp(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/sign-in",
		strings.NewReader(`{"email":"dana@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.SignIn(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), `"UNAUTHORIZED"`)
}

func TestAuthHandlerSignUpDuplicate(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t)
	signUp(t, h)

	body := `{"email":"dana@example.com","fullName":"Dana Dev","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/sign-up", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SignUp(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), `"ALREADY_EXISTS"`)
}

func TestAuthHandlerRefreshRotatesCookie(t *testing.T) {
	t.Parallel()

	h, metrics := newTestAuthHandler(t)
	_, cookie := signUp(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeSession(t, rec)
	require.NotEmpty(t, session.AccessToken)

	rotated := refreshCookie(t, rec)
	require.NotEqual(t, cookie.Value, rotated.Value)
	require.Contains(t, metrics.refreshes, "success")

	// The original cookie was revoked by the rotation; replaying it fails and
	// clears the cookie.
	replay := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh/", nil)
	replay.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.Refresh(rec, replay)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	cleared := refreshCookie(t, rec)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)
}

func TestAuthHandlerRefreshWithoutCookie(t *testing.T) {
	t.Parallel()

	h, metrics := newTestAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh/", nil)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, []string{"unauthorized"}, metrics.refreshes)
}

func TestAuthHandlerSignOut(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t)
	_, cookie := signUp(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/sign-out/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.SignOut(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cleared := refreshCookie(t, rec)
	require.Empty(t, cleared.Value)

	// The revoked credential no longer refreshes.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.Refresh(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerSignOutWithoutCookieStillSucceeds(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/sign-out/", nil)
	rec := httptest.NewRecorder()
	h.SignOut(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandlerForgotPasswordAlwaysOK(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t)
	signUp(t, h)

	for _, email := range []string{"dana@example.com", "nobody@example.com"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/forgot-password",
			strings.NewReader(`{"email":"`+email+`"}`))
		rec := httptest.NewRecorder()
		h.ForgotPassword(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestAuthHandlerRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/sign-in", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.SignIn(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
