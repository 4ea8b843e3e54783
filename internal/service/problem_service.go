package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/problem-tracker/internal/domain"
	"github.com/spec-kit/problem-tracker/internal/events"
	"github.com/spec-kit/problem-tracker/internal/repository"
	"github.com/spec-kit/problem-tracker/internal/validation"
)

// maxImportSize bounds JSON problem imports.
const maxImportSize = 5 << 20

// ProblemService coordinates owner-scoped problem workflows. Every method receives the
// verified principal explicitly; ownership is enforced by the repository predicates.
type ProblemService struct {
	problems   repository.ProblemRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// ProblemDependencies bundles collaborators for the problem service.
type ProblemDependencies struct {
	ProblemRepo repository.ProblemRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// ProblemInput describes a created or replaced problem.
type ProblemInput struct {
	Name    string               `json:"name" validate:"required,nonul,max=255"`
	Comment string               `json:"comment" validate:"nonul,max=4000"`
	Link    string               `json:"link" validate:"omitempty,nonul,url,max=2048"`
	Status  domain.ProblemStatus `json:"status" validate:"omitempty,oneof=TODO DOING DONE"`
	Level   domain.ProblemLevel  `json:"level" validate:"omitempty,oneof=EASY MEDIUM HARD"`
}

// ProblemListFilter describes listing filters.
type ProblemListFilter struct {
	Statuses   []domain.ProblemStatus
	Levels     []domain.ProblemLevel
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewProblemService constructs the service.
func NewProblemService(deps ProblemDependencies) *ProblemService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProblemService{
		problems:   deps.ProblemRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Create stores a problem owned by principal.
func (s *ProblemService) Create(ctx context.Context, principal domain.Principal, input ProblemInput) (*domain.Problem, error) {
	problem, err := s.newProblem(principal, input, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.problems.Create(ctx, problem); err != nil {
		return nil, err
	}
	s.publish(ctx, principal, events.EventProblemCreated, problem.Status, problem.ID)
	return problem, nil
}

// List returns the principal's own problems.
func (s *ProblemService) List(ctx context.Context, principal domain.Principal, filter ProblemListFilter) ([]domain.Problem, error) {
	return s.problems.ListByOwner(ctx, principal.UserID, toRepoFilter(filter))
}

// Get returns one of the principal's problems. Problems of other owners are domain.ErrNotFound.
func (s *ProblemService) Get(ctx context.Context, principal domain.Principal, id string) (*domain.Problem, error) {
	return s.problems.GetForOwner(ctx, id, principal.UserID)
}

// Update replaces the mutable fields of one of the principal's problems.
func (s *ProblemService) Update(ctx context.Context, principal domain.Principal, id string, input ProblemInput) (*domain.Problem, error) {
	input = normalizeProblemInput(input)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	problem, err := s.problems.GetForOwner(ctx, id, principal.UserID)
	if err != nil {
		return nil, err
	}
	wasDone := problem.Status == domain.ProblemStatusDone

	problem.Name = input.Name
	problem.Comment = input.Comment
	problem.Link = input.Link
	problem.Status = input.Status
	problem.Level = input.Level
	s.stampDone(problem, wasDone)

	if err := s.problems.UpdateForOwner(ctx, problem); err != nil {
		return nil, err
	}
	s.publish(ctx, principal, events.EventProblemUpdated, problem.Status, problem.ID)
	return problem, nil
}

// UpdateStatus moves one of the principal's problems to status.
func (s *ProblemService) UpdateStatus(ctx context.Context, principal domain.Principal, id string, status domain.ProblemStatus) (*domain.Problem, error) {
	status = domain.ProblemStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !validStatus(status) {
		return nil, fmt.Errorf("%w: status must be one of: TODO DOING DONE", domain.ErrInvalidInput)
	}

	problem, err := s.problems.GetForOwner(ctx, id, principal.UserID)
	if err != nil {
		return nil, err
	}
	wasDone := problem.Status == domain.ProblemStatusDone
	problem.Status = status
	s.stampDone(problem, wasDone)

	if err := s.problems.UpdateForOwner(ctx, problem); err != nil {
		return nil, err
	}
	s.publish(ctx, principal, events.EventProblemUpdated, problem.Status, problem.ID)
	return problem, nil
}

// Delete removes one of the principal's problems.
func (s *ProblemService) Delete(ctx context.Context, principal domain.Principal, id string) error {
	if err := s.problems.DeleteForOwner(ctx, id, principal.UserID); err != nil {
		return err
	}
	s.publish(ctx, principal, events.EventProblemDeleted, "", id)
	return nil
}

// CreateBulk stores a batch of problems owned by an administrator principal. The batch is
// validated as a whole before anything is written.
func (s *ProblemService) CreateBulk(ctx context.Context, principal domain.Principal, inputs []ProblemInput) ([]domain.Problem, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: problem list must not be empty", domain.ErrInvalidInput)
	}

	now := s.now().UTC()
	batch := make([]*domain.Problem, 0, len(inputs))
	for i, input := range inputs {
		problem, err := s.newProblem(principal, input, now)
		if err != nil {
			return nil, fmt.Errorf("problem %d: %w", i, err)
		}
		batch = append(batch, problem)
	}

	if err := s.problems.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	created := make([]domain.Problem, len(batch))
	ids := make([]string, len(batch))
	for i, problem := range batch {
		created[i] = *problem
		ids[i] = problem.ID
	}
	s.publish(ctx, principal, events.EventProblemCreated, "", ids...)
	return created, nil
}

// ImportJSON reads a JSON array of problems from r and stores them through CreateBulk.
func (s *ProblemService) ImportJSON(ctx context.Context, principal domain.Principal, filename string, r io.Reader) ([]domain.Problem, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".json") {
		return nil, fmt.Errorf("%w: only .json files are accepted", domain.ErrInvalidInput)
	}

	var inputs []ProblemInput
	if err := json.NewDecoder(io.LimitReader(r, maxImportSize)).Decode(&inputs); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON problem list", domain.ErrInvalidInput)
	}
	return s.CreateBulk(ctx, principal, inputs)
}

// ListAll returns problems of every owner. Administrators only.
func (s *ProblemService) ListAll(ctx context.Context, principal domain.Principal, filter ProblemListFilter) ([]domain.Problem, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	return s.problems.ListAll(ctx, toRepoFilter(filter))
}

func (s *ProblemService) newProblem(principal domain.Principal, input ProblemInput, now time.Time) (*domain.Problem, error) {
	input = normalizeProblemInput(input)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	problem := &domain.Problem{
		OwnerID:  principal.UserID,
		Name:     input.Name,
		Comment:  input.Comment,
		Link:     input.Link,
		Status:   input.Status,
		Level:    input.Level,
		PostedAt: now,
	}
	problem.MarkDone(now)
	return problem, nil
}

// stampDone sets DoneAt when a problem enters DONE and clears it when it leaves.
func (s *ProblemService) stampDone(problem *domain.Problem, wasDone bool) {
	switch {
	case problem.Status != domain.ProblemStatusDone:
		problem.DoneAt = nil
	case !wasDone || problem.DoneAt == nil:
		problem.MarkDone(s.now().UTC())
	}
}

func (s *ProblemService) publish(ctx context.Context, principal domain.Principal, eventType events.EventType, status domain.ProblemStatus, ids ...string) {
	if s.dispatcher == nil {
		return
	}
	event := events.New(eventType, events.ActorFromPrincipal(principal), s.now(), events.ProblemChangedPayload{
		ProblemIDs: ids,
		Status:     status,
	})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func normalizeProblemInput(input ProblemInput) ProblemInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Comment = strings.TrimSpace(input.Comment)
	input.Link = strings.TrimSpace(input.Link)
	input.Status = domain.ProblemStatus(strings.ToUpper(strings.TrimSpace(string(input.Status))))
	input.Level = domain.ProblemLevel(strings.ToUpper(strings.TrimSpace(string(input.Level))))
	if input.Status == "" {
		input.Status = domain.ProblemStatusTodo
	}
	if input.Level == "" {
		input.Level = domain.ProblemLevelEasy
	}
	return input
}

func validStatus(status domain.ProblemStatus) bool {
	switch status {
	case domain.ProblemStatusTodo, domain.ProblemStatusDoing, domain.ProblemStatusDone:
		return true
	}
	return false
}

func toRepoFilter(filter ProblemListFilter) repository.ProblemFilter {
	return repository.ProblemFilter{
		Statuses:   filter.Statuses,
		Levels:     filter.Levels,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
}
