package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hoangdanh165/devplanner/internal/avatar"
	"github.com/hoangdanh165/devplanner/internal/middleware"
	"github.com/hoangdanh165/devplanner/internal/model"
	"github.com/hoangdanh165/devplanner/internal/service"
)

type UserHandler struct {
	service *service.AuthService
}

func NewUserHandler(service *service.AuthService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

// Avatar serves the user's avatar. Accounts without a provider-supplied
// avatar get a generated identicon.
func (h *UserHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	if user.Avatar != "" {
		http.Redirect(w, r, user.Avatar, http.StatusTemporaryRedirect)
		return
	}

	img, err := avatar.Generate(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
