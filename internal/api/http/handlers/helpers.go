package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/problem-tracker/internal/auth"
	"github.com/spec-kit/problem-tracker/internal/domain"
	"github.com/spec-kit/problem-tracker/internal/service"
	apperrors "github.com/spec-kit/problem-tracker/pkg/util/errorutil"
)

// principal returns the verified caller attached by the auth middleware.
func principal(c *fiber.Ctx) (domain.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Principal{}, apperrors.NewUnauthorized(auth.UnauthorizedMessage)
	}
	return *p, nil
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}

func parseProblemFilter(c *fiber.Ctx) service.ProblemListFilter {
	filter := service.ProblemListFilter{}
	if statuses := c.Query("status"); statuses != "" {
		for _, part := range strings.Split(statuses, ",") {
			filter.Statuses = append(filter.Statuses, domain.ProblemStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if levels := c.Query("level"); levels != "" {
		for _, part := range strings.Split(levels, ",") {
			filter.Levels = append(filter.Levels, domain.ProblemLevel(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	// Listings are complete unless the client asks for a page.
	if c.Query("page") == "" && c.Query("page_size") == "" {
		return filter
	}
	page := parseIntQuery(c, "page", 1)
	pageSize := min(parseIntQuery(c, "page_size", 50), 500)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}
