package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/problem-tracker/internal/domain"
)

func TestProblemCreate_Defaults(t *testing.T) {
	f := newFixture(t)
	ada := f.signup(t, "ada", "")

	problem, err := f.problemSvc.Create(context.Background(), ada, ProblemInput{Name: " Two Sum ", Link: "https://leetcode.com/problems/two-sum"})
	require.NoError(t, err)

	assert.Equal(t, ada.UserID, problem.OwnerID)
	assert.Equal(t, "Two Sum", problem.Name)
	assert.Equal(t, domain.ProblemStatusTodo, problem.Status)
	assert.Equal(t, domain.ProblemLevelEasy, problem.Level)
	assert.Equal(t, testNow, problem.PostedAt)
	assert.Nil(t, problem.DoneAt)
}

func TestProblemCreate_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ada := f.signup(t, "ada", "")

	tests := []ProblemInput{
		{Name: ""},
		{Name: "x", Status: "LATER"},
		{Name: "x", Level: "IMPOSSIBLE"},
		{Name: "x", Link: "not a url"},
	}
	for _, input := range tests {
		_, err := f.problemSvc.Create(context.Background(), ada, input)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "input %+v", input)
	}
}

func TestProblem_OwnershipIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.signup(t, "ada", "")
	grace := f.signup(t, "grace", "")

	problem, err := f.problemSvc.Create(ctx, ada, ProblemInput{Name: "Two Sum"})
	require.NoError(t, err)

	_, err = f.problemSvc.Get(ctx, grace, problem.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.problemSvc.Update(ctx, grace, problem.ID, ProblemInput{Name: "stolen"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.problemSvc.UpdateStatus(ctx, grace, problem.ID, domain.ProblemStatusDone)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, f.problemSvc.Delete(ctx, grace, problem.ID), domain.ErrNotFound)

	list, err := f.problemSvc.List(ctx, grace, ProblemListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	own, err := f.problemSvc.Get(ctx, ada, problem.ID)
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", own.Name)
}

func TestProblemUpdateStatus_DoneTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.signup(t, "ada", "")

	problem, err := f.problemSvc.Create(ctx, ada, ProblemInput{Name: "Two Sum"})
	require.NoError(t, err)

	doneAt := testNow.Add(time.Hour)
	f.problemSvc.now = func() time.Time { return doneAt }

	updated, err := f.problemSvc.UpdateStatus(ctx, ada, problem.ID, "done")
	require.NoError(t, err)
	assert.Equal(t, domain.ProblemStatusDone, updated.Status)
	require.NotNil(t, updated.DoneAt)
	assert.Equal(t, doneAt, *updated.DoneAt)

	f.problemSvc.now = func() time.Time { return doneAt.Add(time.Hour) }
	again, err := f.problemSvc.Update(ctx, ada, problem.ID, ProblemInput{Name: "Two Sum", Comment: "hash map", Status: domain.ProblemStatusDone})
	require.NoError(t, err)
	require.NotNil(t, again.DoneAt)
	assert.Equal(t, doneAt, *again.DoneAt, "re-saving a DONE problem keeps its completion time")

	reopened, err := f.problemSvc.UpdateStatus(ctx, ada, problem.ID, domain.ProblemStatusDoing)
	require.NoError(t, err)
	assert.Nil(t, reopened.DoneAt)

	_, err = f.problemSvc.UpdateStatus(ctx, ada, problem.ID, "LATER")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProblemDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.signup(t, "ada", "")

	problem, err := f.problemSvc.Create(ctx, ada, ProblemInput{Name: "Two Sum"})
	require.NoError(t, err)

	require.NoError(t, f.problemSvc.Delete(ctx, ada, problem.ID))
	_, err = f.problemSvc.Get(ctx, ada, problem.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProblemCreateBulk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.signup(t, "root", "ADMIN")
	user := f.signup(t, "ada", "")

	_, err := f.problemSvc.CreateBulk(ctx, user, []ProblemInput{{Name: "A"}})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.problemSvc.CreateBulk(ctx, admin, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.problemSvc.CreateBulk(ctx, admin, []ProblemInput{{Name: "A"}, {Name: ""}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	all, err := f.problemSvc.ListAll(ctx, admin, ProblemListFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "an invalid entry rejects the whole batch")

	created, err := f.problemSvc.CreateBulk(ctx, admin, []ProblemInput{
		{Name: "A", Status: domain.ProblemStatusDone},
		{Name: "B", Level: domain.ProblemLevelHard},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, p := range created {
		assert.Equal(t, admin.UserID, p.OwnerID)
		assert.Equal(t, testNow, p.PostedAt)
	}
	require.NotNil(t, created[0].DoneAt)
	assert.Nil(t, created[1].DoneAt)
}

func TestProblemImportJSON(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.signup(t, "root", "ADMIN")
	user := f.signup(t, "ada", "")

	body := `[{"name":"Two Sum","level":"EASY"},{"name":"LRU Cache","level":"MEDIUM","status":"DOING"}]`

	_, err := f.problemSvc.ImportJSON(ctx, user, "list.json", strings.NewReader(body))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.problemSvc.ImportJSON(ctx, admin, "list.csv", strings.NewReader(body))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.problemSvc.ImportJSON(ctx, admin, "list.json", strings.NewReader(`{"name":"not a list"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.problemSvc.ImportJSON(ctx, admin, "list.json", strings.NewReader(`[]`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	created, err := f.problemSvc.ImportJSON(ctx, admin, "List.JSON", strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, domain.ProblemStatusDoing, created[1].Status)
}

func TestProblemListAll_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.signup(t, "root", "ADMIN")
	ada := f.signup(t, "ada", "")
	grace := f.signup(t, "grace", "")

	_, err := f.problemSvc.Create(ctx, ada, ProblemInput{Name: "A"})
	require.NoError(t, err)
	_, err = f.problemSvc.Create(ctx, grace, ProblemInput{Name: "B"})
	require.NoError(t, err)

	_, err = f.problemSvc.ListAll(ctx, ada, ProblemListFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	all, err := f.problemSvc.ListAll(ctx, admin, ProblemListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
