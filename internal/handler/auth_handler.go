package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/hoangdanh165/devplanner/internal/model"
	"github.com/hoangdanh165/devplanner/internal/oauth"
	"github.com/hoangdanh165/devplanner/internal/service"
	"github.com/hoangdanh165/devplanner/pkg/apierror"
)

type signInRecorder interface {
	RecordSignIn(provider string)
	RecordRefresh(outcome string)
}

type AuthHandler struct {
	service      *service.AuthService
	google       *oauth.GoogleProvider
	github       *oauth.GitHubProvider
	cookieName   string
	cookieSecure bool
	metrics      signInRecorder
}

func NewAuthHandler(service *service.AuthService, google *oauth.GoogleProvider, github *oauth.GitHubProvider, cookieName string, cookieSecure bool, metrics signInRecorder) *AuthHandler {
	return &AuthHandler{
		service:      service,
		google:       google,
		github:       github,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
		metrics:      metrics,
	}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	session, refreshToken, err := h.service.SignUp(r.Context(), payload.Email, payload.FullName, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, refreshToken)
	h.metrics.RecordSignIn(model.ProviderLocal)
	writeSuccess(w, http.StatusCreated, session, nil)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	session, refreshToken, err := h.service.SignIn(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, refreshToken)
	h.metrics.RecordSignIn(model.ProviderLocal)
	writeSuccess(w, http.StatusOK, session, nil)
}

func (h *AuthHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.GoogleSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if strings.TrimSpace(payload.Token) == "" {
		writeError(w, apierror.BadRequest("token is required", "token"))
		return
	}

	info, err := h.google.Verify(r.Context(), payload.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	session, refreshToken, err := h.service.SignInWithProvider(r.Context(), info, model.ProviderGoogle)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, refreshToken)
	h.metrics.RecordSignIn(model.ProviderGoogle)
	writeSuccess(w, http.StatusOK, session, nil)
}

func (h *AuthHandler) GitHubSignIn(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.GitHubSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if strings.TrimSpace(payload.Code) == "" {
		writeError(w, apierror.BadRequest("code is required", "code"))
		return
	}

	info, err := h.github.Exchange(r.Context(), payload.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	session, refreshToken, err := h.service.SignInWithProvider(r.Context(), info, model.ProviderGitHub)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, refreshToken)
	h.metrics.RecordSignIn(model.ProviderGitHub)
	writeSuccess(w, http.StatusOK, session, nil)
}

// Refresh exchanges the refresh cookie for a new token pair. The old token is
// revoked; the rotated one replaces the cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		h.metrics.RecordRefresh("unauthorized")
		writeError(w, model.ErrUnauthorized)
		return
	}

	session, refreshToken, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		h.metrics.RecordRefresh("unauthorized")
		h.clearRefreshCookie(w)
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, refreshToken)
	h.metrics.RecordRefresh("success")
	writeSuccess(w, http.StatusOK, session, nil)
}

// SignOut revokes the refresh credential and clears the cookie. Revocation
// failures still produce a 200; the client is signing out either way.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookieName); err == nil {
		_ = h.service.SignOut(r.Context(), cookie.Value)
	}

	h.clearRefreshCookie(w)
	writeSuccess(w, http.StatusOK, map[string]any{"signedOut": true}, nil)
}

// ForgotPassword always answers 200 so the endpoint cannot be used to
// discover which emails are registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if strings.TrimSpace(payload.Email) == "" {
		writeError(w, apierror.BadRequest("email is required", "email"))
		return
	}

	if err := h.service.ForgotPassword(r.Context(), payload.Email); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"sent": true}, nil)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	sameSite := http.SameSiteLaxMode
	if h.cookieSecure {
		// Cross-origin SPA deployments need SameSite=None, which in turn
		// requires Secure.
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/api/v1/users",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: sameSite,
		Expires:  time.Now().Add(h.service.RefreshTTL()),
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/api/v1/users",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		MaxAge:   -1,
	})
}
