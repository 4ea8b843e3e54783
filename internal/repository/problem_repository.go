package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/problem-tracker/internal/domain"
)

const problemColumns = `id, owner_id, name, comment, link, status, level, posted_at, done_at, updated_at`

// ProblemFilter narrows listings. Owner scoping is not part of the filter; it is an explicit
// argument of every owner-facing method.
type ProblemFilter struct {
	Statuses   []domain.ProblemStatus
	Levels     []domain.ProblemLevel
	SearchTerm *string
	// Limit caps the page size; zero returns every match. Offset only applies with a Limit.
	Limit  int
	Offset int
}

// ProblemRepository encapsulates problem persistence. Every method taking ownerID binds it
// into the SQL predicate, so rows of other owners are indistinguishable from absent rows.
type ProblemRepository interface {
	Create(ctx context.Context, problem *domain.Problem) error
	CreateBatch(ctx context.Context, problems []*domain.Problem) error
	GetForOwner(ctx context.Context, id, ownerID string) (*domain.Problem, error)
	UpdateForOwner(ctx context.Context, problem *domain.Problem) error
	DeleteForOwner(ctx context.Context, id, ownerID string) error
	ListByOwner(ctx context.Context, ownerID string, filter ProblemFilter) ([]domain.Problem, error)
	ListAll(ctx context.Context, filter ProblemFilter) ([]domain.Problem, error)
	// CountByStatus aggregates one owner's problems, or every problem when ownerID is nil.
	CountByStatus(ctx context.Context, ownerID *string) (domain.ProblemProgress, error)
	// CountByOwner aggregates progress for every owner keyed by owner id.
	CountByOwner(ctx context.Context) (map[string]domain.ProblemProgress, error)
}

type problemRepository struct {
	db DBTX
}

// NewProblemRepository instantiates repository.
func NewProblemRepository(db DBTX) ProblemRepository {
	return &problemRepository{db: db}
}

const insertProblemQuery = `
        INSERT INTO problems (owner_id, name, comment, link, status, level, posted_at, done_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, updated_at`

func (r *problemRepository) Create(ctx context.Context, problem *domain.Problem) error {
	return insertProblem(ctx, r.db, problem)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertProblem(ctx context.Context, q queryRower, problem *domain.Problem) error {
	return q.QueryRow(ctx, insertProblemQuery,
		problem.OwnerID,
		problem.Name,
		problem.Comment,
		problem.Link,
		problem.Status,
		problem.Level,
		problem.PostedAt,
		problem.DoneAt,
	).Scan(&problem.ID, &problem.UpdatedAt)
}

func (r *problemRepository) CreateBatch(ctx context.Context, problems []*domain.Problem) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}

	for i, problem := range problems {
		if err := insertProblem(ctx, tx, problem); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("insert problem %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *problemRepository) GetForOwner(ctx context.Context, id, ownerID string) (*domain.Problem, error) {
	if !validID(id) || !validID(ownerID) {
		return nil, domain.ErrNotFound
	}
	query := `SELECT ` + problemColumns + ` FROM problems WHERE id=$1 AND owner_id=$2`

	var problem domain.Problem
	if err := scanProblem(r.db.QueryRow(ctx, query, id, ownerID), &problem); err != nil {
		return nil, notFound(err)
	}
	return &problem, nil
}

func (r *problemRepository) UpdateForOwner(ctx context.Context, problem *domain.Problem) error {
	if !validID(problem.ID) || !validID(problem.OwnerID) {
		return domain.ErrNotFound
	}
	const query = `
        UPDATE problems SET name=$1, comment=$2, link=$3, status=$4, level=$5, done_at=$6, updated_at=NOW()
        WHERE id=$7 AND owner_id=$8
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		problem.Name,
		problem.Comment,
		problem.Link,
		problem.Status,
		problem.Level,
		problem.DoneAt,
		problem.ID,
		problem.OwnerID,
	).Scan(&problem.UpdatedAt)
	return notFound(err)
}

func (r *problemRepository) DeleteForOwner(ctx context.Context, id, ownerID string) error {
	if !validID(id) || !validID(ownerID) {
		return domain.ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM problems WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *problemRepository) ListByOwner(ctx context.Context, ownerID string, filter ProblemFilter) ([]domain.Problem, error) {
	if !validID(ownerID) {
		return nil, nil
	}
	return r.listWithFilter(ctx, &ownerID, filter)
}

func (r *problemRepository) ListAll(ctx context.Context, filter ProblemFilter) ([]domain.Problem, error) {
	return r.listWithFilter(ctx, nil, filter)
}

func (r *problemRepository) listWithFilter(ctx context.Context, ownerID *string, filter ProblemFilter) ([]domain.Problem, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if ownerID != nil {
		args = append(args, *ownerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Levels) > 0 {
		placeholders := make([]string, len(filter.Levels))
		for i, level := range filter.Levels {
			args = append(args, level)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("level IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(comment) LIKE %s)", placeholder, placeholder))
	}

	query := fmt.Sprintf(`SELECT %s FROM problems WHERE %s ORDER BY posted_at DESC`,
		problemColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, max(filter.Offset, 0))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, invalidText(err)
	}
	defer rows.Close()
	return scanProblems(rows)
}

func (r *problemRepository) CountByStatus(ctx context.Context, ownerID *string) (domain.ProblemProgress, error) {
	query := `SELECT status, COUNT(*) FROM problems GROUP BY status`
	args := []any{}
	if ownerID != nil {
		if !validID(*ownerID) {
			return domain.ProblemProgress{}, nil
		}
		query = `SELECT status, COUNT(*) FROM problems WHERE owner_id=$1 GROUP BY status`
		args = append(args, *ownerID)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return domain.ProblemProgress{}, err
	}
	defer rows.Close()

	var progress domain.ProblemProgress
	for rows.Next() {
		var (
			status domain.ProblemStatus
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return domain.ProblemProgress{}, err
		}
		progress.Add(status, count)
	}
	return progress, rows.Err()
}

func (r *problemRepository) CountByOwner(ctx context.Context) (map[string]domain.ProblemProgress, error) {
	rows, err := r.db.Query(ctx, `SELECT owner_id, status, COUNT(*) FROM problems GROUP BY owner_id, status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.ProblemProgress)
	for rows.Next() {
		var (
			ownerID string
			status  domain.ProblemStatus
			count   int64
		)
		if err := rows.Scan(&ownerID, &status, &count); err != nil {
			return nil, err
		}
		progress := result[ownerID]
		progress.Add(status, count)
		result[ownerID] = progress
	}
	return result, rows.Err()
}

func scanProblem(row pgx.Row, problem *domain.Problem) error {
	return row.Scan(
		&problem.ID,
		&problem.OwnerID,
		&problem.Name,
		&problem.Comment,
		&problem.Link,
		&problem.Status,
		&problem.Level,
		&problem.PostedAt,
		&problem.DoneAt,
		&problem.UpdatedAt,
	)
}

func scanProblems(rows pgx.Rows) ([]domain.Problem, error) {
	var result []domain.Problem
	for rows.Next() {
		var problem domain.Problem
		if err := scanProblem(rows, &problem); err != nil {
			return nil, err
		}
		result = append(result, problem)
	}
	return result, rows.Err()
}
