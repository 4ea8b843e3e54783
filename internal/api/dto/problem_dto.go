package dto

import (
	"time"

	"github.com/spec-kit/problem-tracker/internal/domain"
)

// ProblemRequest creates or replaces a problem.
type ProblemRequest struct {
	Name    string               `json:"name"`
	Comment string               `json:"comment"`
	Link    string               `json:"link"`
	Status  domain.ProblemStatus `json:"status"`
	Level   domain.ProblemLevel  `json:"level"`
}

// StatusRequest moves a problem between states.
type StatusRequest struct {
	Status domain.ProblemStatus `json:"status"`
}

// ProblemResponse is the client view of a problem.
type ProblemResponse struct {
	ID        string               `json:"id"`
	OwnerID   string               `json:"owner_id"`
	Name      string               `json:"name"`
	Comment   string               `json:"comment"`
	Link      string               `json:"link"`
	Status    domain.ProblemStatus `json:"status"`
	Level     domain.ProblemLevel  `json:"level"`
	PostedAt  time.Time            `json:"posted_at"`
	DoneAt    *time.Time           `json:"done_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// NewProblemResponse maps a stored problem.
func NewProblemResponse(p domain.Problem) ProblemResponse {
	return ProblemResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Comment:   p.Comment,
		Link:      p.Link,
		Status:    p.Status,
		Level:     p.Level,
		PostedAt:  p.PostedAt,
		DoneAt:    p.DoneAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// NewProblemList maps a slice, never returning nil so the JSON is always an array.
func NewProblemList(problems []domain.Problem) []ProblemResponse {
	out := make([]ProblemResponse, 0, len(problems))
	for _, p := range problems {
		out = append(out, NewProblemResponse(p))
	}
	return out
}
