package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/problem-tracker/internal/domain"
	"github.com/spec-kit/problem-tracker/internal/repository"
)

// ProblemStore keeps problems in process memory with the same owner scoping as the Postgres
// repository: a problem of another owner is reported as domain.ErrNotFound.
type ProblemStore struct {
	mu   sync.RWMutex
	rows map[string]*domain.Problem
	now  func() time.Time
}

var _ repository.ProblemRepository = (*ProblemStore)(nil)

// NewProblemStore returns an empty store.
func NewProblemStore() *ProblemStore {
	return &ProblemStore{rows: make(map[string]*domain.Problem), now: time.Now}
}

func (s *ProblemStore) Create(_ context.Context, problem *domain.Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(problem)
	return nil
}

func (s *ProblemStore) CreateBatch(_ context.Context, problems []*domain.Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, problem := range problems {
		s.insertLocked(problem)
	}
	return nil
}

func (s *ProblemStore) insertLocked(problem *domain.Problem) {
	problem.ID = uuid.NewString()
	problem.UpdatedAt = s.now().UTC()
	stored := *problem
	s.rows[stored.ID] = &stored
}

func (s *ProblemStore) GetForOwner(_ context.Context, id, ownerID string) (*domain.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	problem, ok := s.rows[id]
	if !ok || problem.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	out := *problem
	return &out, nil
}

func (s *ProblemStore) UpdateForOwner(_ context.Context, problem *domain.Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rows[problem.ID]
	if !ok || current.OwnerID != problem.OwnerID {
		return domain.ErrNotFound
	}
	problem.PostedAt = current.PostedAt
	problem.UpdatedAt = s.now().UTC()
	stored := *problem
	s.rows[stored.ID] = &stored
	return nil
}

func (s *ProblemStore) DeleteForOwner(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	problem, ok := s.rows[id]
	if !ok || problem.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *ProblemStore) ListByOwner(_ context.Context, ownerID string, filter repository.ProblemFilter) ([]domain.Problem, error) {
	return s.list(func(p *domain.Problem) bool { return p.OwnerID == ownerID }, filter), nil
}

func (s *ProblemStore) ListAll(_ context.Context, filter repository.ProblemFilter) ([]domain.Problem, error) {
	return s.list(func(*domain.Problem) bool { return true }, filter), nil
}

func (s *ProblemStore) list(keep func(*domain.Problem) bool, filter repository.ProblemFilter) []domain.Problem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var search string
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}

	var result []domain.Problem
	for _, problem := range s.rows {
		if !keep(problem) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, problem.Status) {
			continue
		}
		if len(filter.Levels) > 0 && !slices.Contains(filter.Levels, problem.Level) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(problem.Name), search) &&
			!strings.Contains(strings.ToLower(problem.Comment), search) {
			continue
		}
		result = append(result, *problem)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].PostedAt.Equal(result[j].PostedAt) {
			return result[i].Name < result[j].Name
		}
		return result[i].PostedAt.After(result[j].PostedAt)
	})

	if filter.Limit <= 0 {
		return result
	}
	offset := max(filter.Offset, 0)
	if offset >= len(result) {
		return nil
	}
	return result[offset:min(offset+filter.Limit, len(result))]
}

func (s *ProblemStore) CountByStatus(_ context.Context, ownerID *string) (domain.ProblemProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var progress domain.ProblemProgress
	for _, problem := range s.rows {
		if ownerID != nil && problem.OwnerID != *ownerID {
			continue
		}
		progress.Add(problem.Status, 1)
	}
	return progress, nil
}

func (s *ProblemStore) CountByOwner(_ context.Context) (map[string]domain.ProblemProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.ProblemProgress)
	for _, problem := range s.rows {
		progress := result[problem.OwnerID]
		progress.Add(problem.Status, 1)
		result[problem.OwnerID] = progress
	}
	return result, nil
}
