package domain

import "time"

// ProblemStatus enumerates progress states for a tracked problem.
type ProblemStatus string

const (
	ProblemStatusTodo  ProblemStatus = "TODO"
	ProblemStatusDoing ProblemStatus = "DOING"
	ProblemStatusDone  ProblemStatus = "DONE"
)

// ProblemLevel enumerates problem difficulty.
type ProblemLevel string

const (
	ProblemLevelEasy   ProblemLevel = "EASY"
	ProblemLevelMedium ProblemLevel = "MEDIUM"
	ProblemLevelHard   ProblemLevel = "HARD"
)

// Problem is a practice problem owned by exactly one user.
type Problem struct {
	ID        string
	OwnerID   string
	Name      string
	Comment   string
	Link      string
	Status    ProblemStatus
	Level     ProblemLevel
	PostedAt  time.Time
	DoneAt    *time.Time
	UpdatedAt time.Time
}

// MarkDone stamps DoneAt when the problem is in the DONE state.
func (p *Problem) MarkDone(now time.Time) {
	if p.Status == ProblemStatusDone {
		p.DoneAt = &now
	}
}

// ProblemProgress aggregates problem counts per status.
type ProblemProgress struct {
	Total int64 `json:"total"`
	Todo  int64 `json:"todo"`
	Doing int64 `json:"doing"`
	Done  int64 `json:"done"`
}

// Add accumulates count under status.
func (p *ProblemProgress) Add(status ProblemStatus, count int64) {
	p.Total += count
	switch status {
	case ProblemStatusTodo:
		p.Todo += count
	case ProblemStatusDoing:
		p.Doing += count
	case ProblemStatusDone:
		p.Done += count
	}
}

// DashboardStats is the administrator overview across all tenants.
type DashboardStats struct {
	TotalUsers    int64           `json:"totalUsers"`
	TotalProblems int64           `json:"totalProblems"`
	ProblemStats  ProblemProgress `json:"problemStats"`
}
