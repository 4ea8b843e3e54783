package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/problem-tracker/internal/api/dto"
	"github.com/spec-kit/problem-tracker/internal/service"
	apperrors "github.com/spec-kit/problem-tracker/pkg/util/errorutil"
)

// ProblemsHandler exposes owner-scoped problem endpoints.
type ProblemsHandler struct {
	problems *service.ProblemService
}

// NewProblemsHandler constructs handler.
func NewProblemsHandler(problemService *service.ProblemService) *ProblemsHandler {
	return &ProblemsHandler{problems: problemService}
}

func toInput(req dto.ProblemRequest) service.ProblemInput {
	return service.ProblemInput{
		Name:    req.Name,
		Comment: req.Comment,
		Link:    req.Link,
		Status:  req.Status,
		Level:   req.Level,
	}
}

// Create handles POST /problems.
func (h *ProblemsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	problem, err := h.problems.Create(c.UserContext(), p, toInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewProblemResponse(*problem))
}

// List handles GET /problems.
func (h *ProblemsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	problems, err := h.problems.List(c.UserContext(), p, parseProblemFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewProblemList(problems))
}

// Get handles GET /problems/:id.
func (h *ProblemsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	problem, err := h.problems.Get(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewProblemResponse(*problem))
}

// Update handles PUT /problems/:id.
func (h *ProblemsHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	problem, err := h.problems.Update(c.UserContext(), p, c.Params("id"), toInput(req))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewProblemResponse(*problem))
}

// UpdateStatus handles PATCH /problems/:id/status.
func (h *ProblemsHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	problem, err := h.problems.UpdateStatus(c.UserContext(), p, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewProblemResponse(*problem))
}

// Delete handles DELETE /problems/:id.
func (h *ProblemsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.problems.Delete(c.UserContext(), p, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UploadList handles POST /problems/upload-list.
func (h *ProblemsHandler) UploadList(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var reqs []dto.ProblemRequest
	if err := c.BodyParser(&reqs); err != nil {
		return invalidPayload()
	}
	inputs := make([]service.ProblemInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, toInput(req))
	}
	created, err := h.problems.CreateBulk(c.UserContext(), p, inputs)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewProblemList(created))
}

// ImportJSON handles POST /problems/import-json with a multipart "file" field.
func (h *ProblemsHandler) ImportJSON(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file is required", nil)
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	created, err := h.problems.ImportJSON(c.UserContext(), p, header.Filename, file)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewProblemList(created))
}
