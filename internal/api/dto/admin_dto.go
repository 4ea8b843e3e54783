package dto

import "github.com/spec-kit/problem-tracker/internal/domain"

// UserProgressResponse is one row of the admin user listing.
type UserProgressResponse struct {
	UserSummary
	Progress domain.ProblemProgress `json:"progress"`
}

// UserProblemsResponse lists the problems of one user.
type UserProblemsResponse struct {
	User     UserSummary       `json:"user"`
	Problems []ProblemResponse `json:"problems"`
}
