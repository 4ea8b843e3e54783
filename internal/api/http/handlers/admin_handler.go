package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/problem-tracker/internal/api/dto"
	"github.com/spec-kit/problem-tracker/internal/service"
)

// AdminHandler exposes the administrator dashboard.
type AdminHandler struct {
	admin    *service.AdminService
	problems *service.ProblemService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService, problemService *service.ProblemService) *AdminHandler {
	return &AdminHandler{admin: adminService, problems: problemService}
}

// Users handles GET /admin/dashboard/users.
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	users, err := h.admin.ListUsers(c.UserContext(), p)
	if err != nil {
		return err
	}
	out := make([]dto.UserProgressResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.UserProgressResponse{
			UserSummary: dto.NewUserSummary(&u.User),
			Progress:    u.Progress,
		})
	}
	return c.JSON(out)
}

// UserProblems handles GET /admin/dashboard/users/:id/problems.
func (h *AdminHandler) UserProblems(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, problems, err := h.admin.UserProblems(c.UserContext(), p, c.Params("id"), parseProblemFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.UserProblemsResponse{
		User:     dto.NewUserSummary(user),
		Problems: dto.NewProblemList(problems),
	})
}

// Stats handles GET /admin/dashboard/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.admin.Stats(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// Problems handles GET /admin/dashboard/problems.
func (h *AdminHandler) Problems(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	problems, err := h.problems.ListAll(c.UserContext(), p, parseProblemFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewProblemList(problems))
}
