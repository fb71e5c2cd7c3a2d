package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hoangdanh165/devplanner/internal/middleware"
	"github.com/hoangdanh165/devplanner/internal/model"
	"github.com/hoangdanh165/devplanner/internal/service"
	"github.com/hoangdanh165/devplanner/pkg/apierror"
)

type PlanHandler struct {
	service *service.PlanService
}

func NewPlanHandler(service *service.PlanService) *PlanHandler {
	return &PlanHandler{service: service}
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	plans, meta, err := h.service.List(r.Context(), claims.UserID, page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, plans, meta)
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload model.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	plan, err := h.service.Create(r.Context(), claims.UserID, payload.Name, payload.Brief)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, plan, nil)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	plan, version, err := h.service.Get(r.Context(), claims.UserID, chi.URLParam(r, "plan_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"plan":     plan,
		"sections": version.Sections,
		"version":  version.Version,
	}, nil)
}

func (h *PlanHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	versionNum, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || versionNum < 1 {
		writeError(w, apierror.BadRequest("invalid version", chi.URLParam(r, "version")))
		return
	}

	version, err := h.service.GetVersion(r.Context(), claims.UserID, chi.URLParam(r, "plan_id"), versionNum)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, version, nil)
}

func (h *PlanHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	plan, err := h.service.Regenerate(r.Context(), claims.UserID, chi.URLParam(r, "plan_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, plan, nil)
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(r.Context(), claims.UserID, chi.URLParam(r, "plan_id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

// Export streams the latest plan version as a markdown attachment.
func (h *PlanHandler) Export(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	doc, err := h.service.Export(r.Context(), claims.UserID, chi.URLParam(r, "plan_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="plan.md"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}
