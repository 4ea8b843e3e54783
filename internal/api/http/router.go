package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/problem-tracker/internal/api/http/handlers"
	"github.com/spec-kit/problem-tracker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Problems       *handlers.ProblemsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	// AdminSignup mounts POST /auth/admin/signup.
	AdminSignup bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	if cfg.AdminSignup {
		authGroup.Post("/admin/signup", cfg.Auth.AdminSignup)
	}

	authenticate := cfg.AuthMiddleware.Handle
	api.Get("/users/me", authenticate, cfg.Auth.Me)

	problems := api.Group("/problems", authenticate)
	problems.Post("/upload-list", auth.RequireAdmin(), cfg.Problems.UploadList)
	problems.Post("/import-json", auth.RequireAdmin(), cfg.Problems.ImportJSON)
	problems.Get("", cfg.Problems.List)
	problems.Post("", cfg.Problems.Create)
	problems.Get("/:id", cfg.Problems.Get)
	problems.Put("/:id", cfg.Problems.Update)
	problems.Patch("/:id/status", cfg.Problems.UpdateStatus)
	problems.Delete("/:id", cfg.Problems.Delete)

	dashboard := api.Group("/admin/dashboard", authenticate, auth.RequireAdmin())
	dashboard.Get("/users", cfg.Admin.Users)
	dashboard.Get("/users/:id/problems", cfg.Admin.UserProblems)
	dashboard.Get("/stats", cfg.Admin.Stats)
	dashboard.Get("/problems", cfg.Admin.Problems)
}
