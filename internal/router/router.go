package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoangdanh165/devplanner/internal/config"
	"github.com/hoangdanh165/devplanner/internal/handler"
	"github.com/hoangdanh165/devplanner/internal/metrics"
	"github.com/hoangdanh165/devplanner/internal/middleware"
	"github.com/hoangdanh165/devplanner/internal/websocket"
)

type Handlers struct {
	Auth *handler.AuthHandler
	Plan *handler.PlanHandler
	User *handler.UserHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers, hub *websocket.Hub, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	// The presence channel stays outside the timeout middleware; it is a
	// long-lived connection.
	r.Get("/ws/presence", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWS(hub, w, req)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/users", func(users chi.Router) {
			users.Post("/sign-up", h.Auth.SignUp)
			users.Post("/sign-in", h.Auth.SignIn)
			users.Post("/google-sign-in", h.Auth.GoogleSignIn)
			users.Post("/github-sign-in", h.Auth.GitHubSignIn)
			users.Post("/refresh/", h.Auth.Refresh)
			users.Post("/sign-out/", h.Auth.SignOut)
			users.Post("/forgot-password", h.Auth.ForgotPassword)
			users.With(authMiddleware.RequireAuth).Get("/me", h.User.Me)
			users.Get("/{user_id}/avatar", h.User.Avatar)
		})

		api.Route("/projects", func(projects chi.Router) {
			projects.Use(authMiddleware.RequireAuth, authMiddleware.RequireActive)
			projects.Get("/", h.Plan.List)
			projects.With(authMiddleware.RequireRoles("user", "admin")).Post("/", h.Plan.Create)
			projects.Get("/{plan_id}", h.Plan.Get)
			projects.Get("/{plan_id}/versions/{version}", h.Plan.GetVersion)
			projects.With(authMiddleware.RequireRoles("user", "admin")).Post("/{plan_id}/regenerate", h.Plan.Regenerate)
			projects.Get("/{plan_id}/export", h.Plan.Export)
			projects.With(authMiddleware.RequireRoles("user", "admin")).Delete("/{plan_id}", h.Plan.Delete)
		})
	})

	return r
}
