package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/problem-tracker/internal/api/dto"
	"github.com/spec-kit/problem-tracker/internal/domain"
	"github.com/spec-kit/problem-tracker/internal/service"
)

// AuthHandler exposes signup, login and identity endpoints.
type AuthHandler struct {
	auth *service.AuthService
	// honorRole lets the public signup route pass the client supplied role through.
	honorRole bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, honorRole bool) *AuthHandler {
	return &AuthHandler{auth: authService, honorRole: honorRole}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	role := ""
	if h.honorRole {
		role = req.Role
	}
	return h.signup(c, req, role)
}

// AdminSignup handles POST /auth/admin/signup. It is only mounted when enabled by configuration.
func (h *AuthHandler) AdminSignup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	return h.signup(c, req, string(domain.RoleAdmin))
}

func (h *AuthHandler) signup(c *fiber.Ctx, req dto.SignupRequest, role string) error {
	res, err := h.auth.Signup(c.UserContext(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.SignupResponse{
		Message: res.Message,
		User:    dto.NewUserSummary(res.User),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	res, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      dto.NewUserSummary(res.User),
	})
}

// Me handles GET /users/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.PrincipalSummary(p))
}
