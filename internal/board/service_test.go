package board_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowtask/internal/board"
	"flowtask/internal/models"
	"flowtask/internal/storage/sqlstore"
	"flowtask/internal/testutil"
	"flowtask/internal/validator"
)

// flakyStore fails selected calls to simulate an unreachable database.
type flakyStore struct {
	*sqlstore.Store
	cascadeFailures int
	findErr         error
	// beforeEdit runs once just before the next UpdateBoard or UpdateTask write.
	beforeEdit func()
}

func (f *flakyStore) runBeforeEdit() {
	if hook := f.beforeEdit; hook != nil {
		f.beforeEdit = nil
		hook()
	}
}

func (f *flakyStore) UpdateBoard(ctx context.Context, b models.Board) error {
	f.runBeforeEdit()
	return f.Store.UpdateBoard(ctx, b)
}

func (f *flakyStore) UpdateTask(ctx context.Context, t models.Task) error {
	f.runBeforeEdit()
	return f.Store.UpdateTask(ctx, t)
}

func (f *flakyStore) SetBoardTasksLifecycle(ctx context.Context, boardID string, lc models.Lifecycle, at time.Time) (int64, error) {
	if f.cascadeFailures > 0 {
		f.cascadeFailures--
		return 0, errors.New("connection reset")
	}
	return f.Store.SetBoardTasksLifecycle(ctx, boardID, lc, at)
}

func (f *flakyStore) FindBoard(ctx context.Context, id string) (models.Board, error) {
	if f.findErr != nil {
		return models.Board{}, f.findErr
	}
	return f.Store.FindBoard(ctx, id)
}

type fixture struct {
	ctx   context.Context
	store *flakyStore
	svc   *board.Service
	ann   models.User
	bob   models.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	s := testutil.NewStore(t)
	flaky := &flakyStore{Store: s}
	clock := testutil.NewClock()
	return fixture{
		ctx:   context.Background(),
		store: flaky,
		svc:   board.NewService(flaky, testutil.Logger(), board.WithClock(clock.Now)),
		ann:   testutil.CreateUser(t, s, "ann"),
		bob:   testutil.CreateUser(t, s, "bob"),
	}
}

func (f fixture) board(t *testing.T, owner models.User, name string) models.Board {
	t.Helper()
	b, err := f.svc.CreateBoard(f.ctx, owner.ID, name)
	require.NoError(t, err)
	return b
}

func (f fixture) task(t *testing.T, owner models.User, b models.Board, title string) models.Task {
	t.Helper()
	task, err := f.svc.CreateTask(f.ctx, owner.ID, b.ID, board.TaskInput{Title: title})
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T { return &v }

func TestSprintScenario(t *testing.T) {
	f := setup(t)

	b := f.board(t, f.ann, "Sprint 1")
	assert.True(t, b.Lifecycle.IsActive())

	task := f.task(t, f.ann, b, "Write spec")
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, f.ann.ID, task.OwnerID)

	task, err := f.svc.UpdateTask(f.ctx, f.ann.ID, task.ID, board.TaskPatch{Status: ptr(models.StatusInProgress)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, task.Status)

	trashed, err := f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateTrashed, trashed.Lifecycle.State())

	got, err := f.svc.GetTask(f.ctx, f.ann.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateTrashed, got.Lifecycle.State())
	assert.Equal(t, models.StatusInProgress, got.Status)

	restored, err := f.svc.RestoreBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, restored.Lifecycle.IsActive())

	got, err = f.svc.GetTask(f.ctx, f.ann.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, got.Lifecycle.IsActive())
	assert.Equal(t, models.StatusInProgress, got.Status)

	require.NoError(t, f.svc.PurgeBoard(f.ctx, f.ann.ID, b.ID))

	_, err = f.svc.GetBoard(f.ctx, f.ann.ID, b.ID)
	assert.ErrorIs(t, err, board.ErrNotFound)
	_, err = f.svc.GetTask(f.ctx, f.ann.ID, task.ID)
	assert.ErrorIs(t, err, board.ErrNotFound)
}

func TestTrashRestorePreservesTaskFields(t *testing.T) {
	f := setup(t)
	b := f.board(t, f.ann, "Home")

	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	before, err := f.svc.CreateTask(f.ctx, f.ann.ID, b.ID, board.TaskInput{
		Title:       "Paint fence",
		Description: "white",
		Status:      models.StatusDone,
		Priority:    models.PriorityHigh,
		DueDate:     &due,
	})
	require.NoError(t, err)

	_, err = f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)
	_, err = f.svc.RestoreBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)

	after, err := f.svc.GetTask(f.ctx, f.ann.ID, before.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.Description, after.Description)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.Priority, after.Priority)
	require.NotNil(t, after.DueDate)
	assert.True(t, after.DueDate.Equal(due))
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestListActiveBoardsOnlyOwnersActiveBoards(t *testing.T) {
	f := setup(t)
	first := f.board(t, f.ann, "first")
	second := f.board(t, f.ann, "second")
	binned := f.board(t, f.ann, "binned")
	f.board(t, f.bob, "bob's")

	_, err := f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, binned.ID)
	require.NoError(t, err)

	active, err := f.svc.ListActiveBoards(f.ctx, f.ann.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second.ID, active[0].ID)
	assert.Equal(t, first.ID, active[1].ID)

	trash, err := f.svc.ListTrashedBoards(f.ctx, f.ann.ID)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, binned.ID, trash[0].ID)

	trash, err = f.svc.ListTrashedBoards(f.ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestSoftDeleteTwiceKeepsTasksTrashed(t *testing.T) {
	f := setup(t)
	b := f.board(t, f.ann, "Sprint")
	one := f.task(t, f.ann, b, "one")
	two := f.task(t, f.ann, b, "two")

	first, err := f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)
	second, err := f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)

	firstAt, _ := first.Lifecycle.TrashedAt()
	secondAt, ok := second.Lifecycle.TrashedAt()
	require.True(t, ok)
	assert.True(t, secondAt.After(firstAt))

	for _, id := range []string{one.ID, two.ID} {
		got, err := f.svc.GetTask(f.ctx, f.ann.ID, id)
		require.NoError(t, err)
		assert.Equal(t, models.StateTrashed, got.Lifecycle.State())
	}

	tasks, err := f.svc.ListTasks(f.ctx, f.ann.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestPurgeFromActiveAndTrashed(t *testing.T) {
	f := setup(t)
	active := f.board(t, f.ann, "active")
	activeTask := f.task(t, f.ann, active, "a")
	binned := f.board(t, f.ann, "binned")
	binnedTask := f.task(t, f.ann, binned, "b")
	_, err := f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, binned.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.PurgeBoard(f.ctx, f.ann.ID, active.ID))
	require.NoError(t, f.svc.PurgeBoard(f.ctx, f.ann.ID, binned.ID))

	for _, id := range []string{activeTask.ID, binnedTask.ID} {
		_, err := f.svc.GetTask(f.ctx, f.ann.ID, id)
		assert.ErrorIs(t, err, board.ErrNotFound)
	}
	_, err = f.svc.RestoreBoard(f.ctx, f.ann.ID, binned.ID)
	assert.ErrorIs(t, err, board.ErrNotFound)
	assert.ErrorIs(t, f.svc.PurgeBoard(f.ctx, f.ann.ID, active.ID), board.ErrNotFound)
}

func TestGuardReportsNotFoundBeforeUnauthorized(t *testing.T) {
	f := setup(t)
	b := f.board(t, f.ann, "private")
	task := f.task(t, f.ann, b, "secret")

	ops := map[string]func(actor, boardID, taskID string) error{
		"get board": func(a, bid, _ string) error { _, err := f.svc.GetBoard(f.ctx, a, bid); return err },
		"rename board": func(a, bid, _ string) error {
			_, err := f.svc.RenameBoard(f.ctx, a, bid, "mine now")
			return err
		},
		"soft delete":  func(a, bid, _ string) error { _, err := f.svc.SoftDeleteBoard(f.ctx, a, bid); return err },
		"restore":      func(a, bid, _ string) error { _, err := f.svc.RestoreBoard(f.ctx, a, bid); return err },
		"purge":        func(a, bid, _ string) error { return f.svc.PurgeBoard(f.ctx, a, bid) },
		"list tasks":   func(a, bid, _ string) error { _, err := f.svc.ListTasks(f.ctx, a, &bid); return err },
		"get task":     func(a, _, tid string) error { _, err := f.svc.GetTask(f.ctx, a, tid); return err },
		"delete task":  func(a, _, tid string) error { return f.svc.DeleteTask(f.ctx, a, tid) },
		"update task": func(a, _, tid string) error {
			_, err := f.svc.UpdateTask(f.ctx, a, tid, board.TaskPatch{Title: ptr("hijacked")})
			return err
		},
		"create task": func(a, bid, _ string) error {
			_, err := f.svc.CreateTask(f.ctx, a, bid, board.TaskInput{Title: "intruder"})
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(f.bob.ID, b.ID, task.ID), board.ErrUnauthorized)
			err := op(f.bob.ID, "no-such-board", "no-such-task")
			assert.ErrorIs(t, err, board.ErrNotFound)
			assert.NotErrorIs(t, err, board.ErrUnauthorized)
		})
	}

	got, err := f.svc.GetTask(f.ctx, f.ann.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Title)
	assert.True(t, got.Lifecycle.IsActive())
}

func TestCreateTaskOnForeignBoardCreatesNothing(t *testing.T) {
	f := setup(t)
	b := f.board(t, f.ann, "ann's")

	_, err := f.svc.CreateTask(f.ctx, f.bob.ID, b.ID, board.TaskInput{Title: "sneaky"})
	require.ErrorIs(t, err, board.ErrUnauthorized)

	annTasks, err := f.svc.ListTasks(f.ctx, f.ann.ID, &b.ID)
	require.NoError(t, err)
	assert.Empty(t, annTasks)
	bobTasks, err := f.svc.ListTasks(f.ctx, f.bob.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, bobTasks)
}

func TestTaskMutationOnTrashedBoard(t *testing.T) {
	f := setup(t)
	b := f.board(t, f.ann, "Sprint")
	task := f.task(t, f.ann, b, "keep")
	_, err := f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateTask(f.ctx, f.ann.ID, b.ID, board.TaskInput{Title: "late"})
	assert.ErrorIs(t, err, board.ErrBoardTrashed)

	_, err = f.svc.UpdateTask(f.ctx, f.ann.ID, task.ID, board.TaskPatch{Title: ptr("edited")})
	assert.ErrorIs(t, err, board.ErrBoardTrashed)

	_, err = f.svc.RenameBoard(f.ctx, f.ann.ID, b.ID, "renamed")
	assert.ErrorIs(t, err, board.ErrBoardTrashed)

	require.NoError(t, f.svc.DeleteTask(f.ctx, f.ann.ID, task.ID))
	_, err = f.svc.GetTask(f.ctx, f.ann.ID, task.ID)
	assert.ErrorIs(t, err, board.ErrNotFound)
}

func TestUpdateTaskReassignsBoard(t *testing.T) {
	f := setup(t)
	from := f.board(t, f.ann, "from")
	to := f.board(t, f.ann, "to")
	binned := f.board(t, f.ann, "binned")
	foreign := f.board(t, f.bob, "bob's")
	task := f.task(t, f.ann, from, "move me")

	_, err := f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, binned.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateTask(f.ctx, f.ann.ID, task.ID, board.TaskPatch{BoardID: &foreign.ID})
	assert.ErrorIs(t, err, board.ErrUnauthorized)

	_, err = f.svc.UpdateTask(f.ctx, f.ann.ID, task.ID, board.TaskPatch{BoardID: &binned.ID})
	assert.ErrorIs(t, err, board.ErrBoardTrashed)

	_, err = f.svc.UpdateTask(f.ctx, f.ann.ID, task.ID, board.TaskPatch{BoardID: ptr("gone")})
	assert.ErrorIs(t, err, board.ErrNotFound)

	moved, err := f.svc.UpdateTask(f.ctx, f.ann.ID, task.ID, board.TaskPatch{BoardID: &to.ID})
	require.NoError(t, err)
	assert.Equal(t, to.ID, moved.BoardID)
	assert.Equal(t, f.ann.ID, moved.OwnerID)

	tasks, err := f.svc.ListTasks(f.ctx, f.ann.ID, &to.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)
}

func TestUpdateTaskPatch(t *testing.T) {
	f := setup(t)
	b := f.board(t, f.ann, "b")
	due := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	task, err := f.svc.CreateTask(f.ctx, f.ann.ID, b.ID, board.TaskInput{Title: "t", Description: "d", DueDate: &due})
	require.NoError(t, err)

	updated, err := f.svc.UpdateTask(f.ctx, f.ann.ID, task.ID, board.TaskPatch{
		Priority:     ptr(models.PriorityLow),
		ClearDueDate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, updated.Priority)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, "t", updated.Title)
	assert.Equal(t, "d", updated.Description)
	assert.True(t, updated.UpdatedAt.After(task.UpdatedAt))

	_, err = f.svc.UpdateTask(f.ctx, f.ann.ID, task.ID, board.TaskPatch{
		Title:  ptr("  "),
		Status: ptr(models.Status("Blocked")),
	})
	var verr *validator.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "status")

	stored, err := f.svc.GetTask(f.ctx, f.ann.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", stored.Title)
}

func TestValidation(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreateBoard(f.ctx, f.ann.ID, "   ")
	assert.ErrorIs(t, err, validator.ErrInvalid)

	b := f.board(t, f.ann, "  padded  ")
	assert.Equal(t, "padded", b.Name)

	_, err = f.svc.CreateTask(f.ctx, f.ann.ID, "", board.TaskInput{Title: "x"})
	assert.ErrorIs(t, err, validator.ErrInvalid)

	_, err = f.svc.CreateTask(f.ctx, f.ann.ID, b.ID, board.TaskInput{Title: ""})
	assert.ErrorIs(t, err, validator.ErrInvalid)

	_, err = f.svc.CreateTask(f.ctx, f.ann.ID, b.ID, board.TaskInput{Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, validator.ErrInvalid)

	tasks, err := f.svc.ListTasks(f.ctx, f.ann.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestEditRacingSoftDeleteKeepsTrash(t *testing.T) {
	f := setup(t)
	b := f.board(t, f.ann, "Sprint")
	task := f.task(t, f.ann, b, "Write spec")

	trashDuringEdit := func() {
		_, err := f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, b.ID)
		require.NoError(t, err)
	}

	f.store.beforeEdit = trashDuringEdit
	_, err := f.svc.UpdateTask(f.ctx, f.ann.ID, task.ID, board.TaskPatch{Status: ptr(models.StatusDone)})
	require.NoError(t, err)

	stored, err := f.store.FindTask(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, stored.Status)
	assert.False(t, stored.Lifecycle.IsActive())

	_, err = f.svc.RestoreBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)

	f.store.beforeEdit = trashDuringEdit
	_, err = f.svc.RenameBoard(f.ctx, f.ann.ID, b.ID, "Sprint 2")
	require.NoError(t, err)

	got, err := f.svc.GetBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sprint 2", got.Name)
	assert.False(t, got.Lifecycle.IsActive())
	stored, err = f.store.FindTask(f.ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, stored.Lifecycle.IsActive())
}

func TestFailedCascadeIsRepairedByRetry(t *testing.T) {
	f := setup(t)
	b := f.board(t, f.ann, "Sprint")
	task := f.task(t, f.ann, b, "t")

	f.store.cascadeFailures = 1
	_, err := f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, b.ID)
	require.ErrorIs(t, err, board.ErrStoreUnavailable)

	// board write landed, task write did not
	got, err := f.svc.GetBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateTrashed, got.Lifecycle.State())
	stale, err := f.svc.GetTask(f.ctx, f.ann.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, stale.Lifecycle.IsActive())

	_, err = f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)
	fixed, err := f.svc.GetTask(f.ctx, f.ann.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateTrashed, fixed.Lifecycle.State())

	f.store.cascadeFailures = 1
	_, err = f.svc.RestoreBoard(f.ctx, f.ann.ID, b.ID)
	require.ErrorIs(t, err, board.ErrStoreUnavailable)
	_, err = f.svc.RestoreBoard(f.ctx, f.ann.ID, b.ID)
	require.NoError(t, err)
	fixed, err = f.svc.GetTask(f.ctx, f.ann.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, fixed.Lifecycle.IsActive())
}

func TestStoreOutageIsReported(t *testing.T) {
	f := setup(t)
	b := f.board(t, f.ann, "Sprint")

	f.store.findErr = errors.New("dial tcp: connection refused")
	_, err := f.svc.GetBoard(f.ctx, f.ann.ID, b.ID)
	assert.ErrorIs(t, err, board.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, board.ErrNotFound)
	assert.NotErrorIs(t, err, board.ErrUnauthorized)
}

func TestSummary(t *testing.T) {
	f := setup(t)
	work := f.board(t, f.ann, "work")
	home := f.board(t, f.ann, "home")
	binned := f.board(t, f.ann, "binned")

	for _, s := range []models.Status{models.StatusDone, models.StatusDone, models.StatusInProgress, models.StatusTodo} {
		_, err := f.svc.CreateTask(f.ctx, f.ann.ID, work.ID, board.TaskInput{Title: string(s), Status: s})
		require.NoError(t, err)
	}
	f.task(t, f.ann, binned, "hidden")
	_, err := f.svc.SoftDeleteBoard(f.ctx, f.ann.ID, binned.ID)
	require.NoError(t, err)

	sum, err := f.svc.Summary(f.ctx, f.ann.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.Done)
	assert.Equal(t, 1, sum.InProgress)
	assert.Equal(t, 1, sum.Todo)
	assert.Equal(t, 50, sum.CompletionRate)
	// (2*3 + 1*1.5 + 1*0.5) / 4 = 2
	assert.Equal(t, 2, sum.ProductivityScore)
	require.Len(t, sum.Boards, 2)
	assert.Equal(t, home.ID, sum.Boards[0].BoardID)
	assert.Equal(t, 0, sum.Boards[0].Total)
	assert.Equal(t, work.ID, sum.Boards[1].BoardID)
	assert.Equal(t, 50, sum.Boards[1].CompletionRate)
	require.Len(t, sum.RecentTasks, 4)
	assert.Equal(t, string(models.StatusTodo), sum.RecentTasks[0].Title)
}

func TestSeedWelcomeBoard(t *testing.T) {
	f := setup(t)
	b, err := f.svc.SeedWelcomeBoard(f.ctx, f.ann.ID)
	require.NoError(t, err)

	tasks, err := f.svc.ListTasks(f.ctx, f.ann.ID, &b.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 4)

	seen := map[models.Status]bool{}
	for _, task := range tasks {
		seen[task.Status] = true
	}
	assert.Len(t, seen, 3)
}
