package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/problem-tracker/internal/domain"
	"github.com/spec-kit/problem-tracker/internal/repository"
)

// StatsCache caches the dashboard aggregate. Get reports the generation a recomputed value
// belongs to; Set under a generation that Invalidate has since retired must not be served.
type StatsCache interface {
	Get(ctx context.Context) (*domain.DashboardStats, int64, error)
	Set(ctx context.Context, generation int64, stats domain.DashboardStats) error
	Invalidate(ctx context.Context) error
}

// AdminService serves the administrator dashboard.
type AdminService struct {
	users    repository.UserRepository
	problems repository.ProblemRepository
	cache    StatsCache
	logger   *zap.Logger
}

// AdminDependencies encapsulates collaborators of the admin service.
type AdminDependencies struct {
	UserRepo    repository.UserRepository
	ProblemRepo repository.ProblemRepository
	StatsCache  StatsCache
	Logger      *zap.Logger
}

// UserProgress pairs a USER account with its problem counts.
type UserProgress struct {
	User     domain.User
	Progress domain.ProblemProgress
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		users:    deps.UserRepo,
		problems: deps.ProblemRepo,
		cache:    deps.StatsCache,
		logger:   logger,
	}
}

func requireAdmin(principal domain.Principal) error {
	if !principal.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// ListUsers returns every USER account with its progress. Administrators are not listed.
func (s *AdminService) ListUsers(ctx context.Context, principal domain.Principal) ([]UserProgress, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	users, err := s.users.ListByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	counts, err := s.problems.CountByOwner(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]UserProgress, 0, len(users))
	for _, user := range users {
		result = append(result, UserProgress{User: user, Progress: counts[user.ID]})
	}
	return result, nil
}

// UserProblems lists the problems of a USER account. Unknown users and administrator
// accounts are domain.ErrNotFound.
func (s *AdminService) UserProblems(ctx context.Context, principal domain.Principal, userID string, filter ProblemListFilter) (*domain.User, []domain.Problem, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user.Role != domain.RoleUser {
		return nil, nil, domain.ErrNotFound
	}
	problems, err := s.problems.ListByOwner(ctx, user.ID, toRepoFilter(filter))
	if err != nil {
		return nil, nil, err
	}
	return user, problems, nil
}

// Stats returns the dashboard aggregate, served from cache when fresh. Cache failures are
// logged and bypassed.
func (s *AdminService) Stats(ctx context.Context, principal domain.Principal) (*domain.DashboardStats, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	var generation int64
	if s.cache != nil {
		cached, gen, err := s.cache.Get(ctx)
		generation = gen
		if err != nil {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	users, err := s.users.ListByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	progress, err := s.problems.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats := domain.DashboardStats{
		TotalUsers:    int64(len(users)),
		TotalProblems: progress.Total,
		ProblemStats:  progress,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, generation, stats); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return &stats, nil
}
