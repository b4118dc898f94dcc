package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/tally/internal/apperrors"
	"github.com/alexanderramin/tally/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sessionTestSetup creates a task that sessions can be attributed to.
func sessionTestSetup(t *testing.T) (*SQLiteSessionRepo, string) {
	t.Helper()
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	task := testutil.NewTestTask("Deep work")
	require.NoError(t, NewSQLiteTaskRepo(db).Create(ctx, task))

	return NewSQLiteSessionRepo(db), task.ID
}

func TestSessionRepo_CreateAndGetByID(t *testing.T) {
	repo, taskID := sessionTestSetup(t)
	ctx := context.Background()

	sess := testutil.NewTestSession(taskID,
		testutil.At("2025-03-01T09:00:00Z"), testutil.At("2025-03-01T10:00:00Z"),
		testutil.WithDuration(3000), testutil.WithDescription("Good session"))
	require.NoError(t, repo.Create(ctx, sess))

	fetched, err := repo.GetByID(ctx, testutil.DefaultUser, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, taskID, fetched.TaskID)
	assert.True(t, sess.StartTime.Equal(fetched.StartTime))
	assert.True(t, sess.EndTime.Equal(fetched.EndTime))
	require.NotNil(t, fetched.Duration)
	assert.Equal(t, 3000, *fetched.Duration)
	assert.Equal(t, "Good session", fetched.Description)
	assert.False(t, fetched.CreatedAt.IsZero())
}

func TestSessionRepo_NullDurationRoundTrips(t *testing.T) {
	repo, taskID := sessionTestSetup(t)
	ctx := context.Background()

	sess := testutil.NewTestSession(taskID,
		testutil.At("2025-03-01T09:00:00Z"), testutil.At("2025-03-01T09:30:00Z"))
	require.NoError(t, repo.Create(ctx, sess))

	fetched, err := repo.GetByID(ctx, testutil.DefaultUser, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.Duration)
	assert.Equal(t, 1800, fetched.EffectiveSeconds())
}

func TestSessionRepo_GetByID_NotFound(t *testing.T) {
	repo, _ := sessionTestSetup(t)

	_, err := repo.GetByID(context.Background(), testutil.DefaultUser, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestSessionRepo_OtherUserCannotSee(t *testing.T) {
	repo, taskID := sessionTestSetup(t)
	ctx := context.Background()

	sess := testutil.NewTestSession(taskID,
		testutil.At("2025-03-01T09:00:00Z"), testutil.At("2025-03-01T10:00:00Z"))
	require.NoError(t, repo.Create(ctx, sess))

	_, err := repo.GetByID(ctx, "intruder", sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := repo.Delete(ctx, "intruder", sess.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	sess.UserID = "intruder"
	assert.ErrorIs(t, repo.Update(ctx, sess), ErrNotFound)
}

func TestSessionRepo_Update(t *testing.T) {
	repo, taskID := sessionTestSetup(t)
	ctx := context.Background()

	sess := testutil.NewTestSession(taskID,
		testutil.At("2025-03-01T09:00:00Z"), testutil.At("2025-03-01T10:00:00Z"))
	require.NoError(t, repo.Create(ctx, sess))

	sess.EndTime = testutil.At("2025-03-01T11:00:00Z")
	sess.Description = "extended"
	sess.Duration = testutil.IntPtr(6000)
	require.NoError(t, repo.Update(ctx, sess))

	fetched, err := repo.GetByID(ctx, testutil.DefaultUser, sess.ID)
	require.NoError(t, err)
	assert.True(t, fetched.EndTime.Equal(testutil.At("2025-03-01T11:00:00Z")))
	assert.Equal(t, "extended", fetched.Description)
	assert.Equal(t, 6000, *fetched.Duration)
	assert.False(t, fetched.UpdatedAt.Before(fetched.CreatedAt))
}

func TestSessionRepo_Delete(t *testing.T) {
	repo, taskID := sessionTestSetup(t)
	ctx := context.Background()

	sess := testutil.NewTestSession(taskID,
		testutil.At("2025-03-01T09:00:00Z"), testutil.At("2025-03-01T10:00:00Z"))
	require.NoError(t, repo.Create(ctx, sess))

	deleted, err := repo.Delete(ctx, testutil.DefaultUser, sess.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, testutil.DefaultUser, sess.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSessionRepo_ListByUserOrdersByStart(t *testing.T) {
	repo, taskID := sessionTestSetup(t)
	ctx := context.Background()

	late := testutil.NewTestSession(taskID, testutil.At("2025-03-02T09:00:00Z"), testutil.At("2025-03-02T10:00:00Z"))
	early := testutil.NewTestSession(taskID, testutil.At("2025-03-01T09:00:00Z"), testutil.At("2025-03-01T10:00:00Z"))
	require.NoError(t, repo.Create(ctx, late))
	require.NoError(t, repo.Create(ctx, early))

	list, err := repo.ListByUser(ctx, testutil.DefaultUser)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)

	byTask, err := repo.ListByTask(ctx, testutil.DefaultUser, taskID)
	require.NoError(t, err)
	assert.Len(t, byTask, 2)

	none, err := repo.ListByUser(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSessionRepo_ListBetweenIsHalfOpen(t *testing.T) {
	repo, taskID := sessionTestSetup(t)
	ctx := context.Background()

	inside := testutil.NewTestSession(taskID, testutil.At("2025-03-01T00:00:00Z"), testutil.At("2025-03-01T01:00:00Z"))
	atEnd := testutil.NewTestSession(taskID, testutil.At("2025-03-02T00:00:00Z"), testutil.At("2025-03-02T01:00:00Z"))
	require.NoError(t, repo.Create(ctx, inside))
	require.NoError(t, repo.Create(ctx, atEnd))

	list, err := repo.ListBetween(ctx, testutil.DefaultUser,
		testutil.At("2025-03-01T00:00:00Z"), testutil.At("2025-03-02T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inside.ID, list[0].ID)
}

func TestSessionRepo_FindOverlapping(t *testing.T) {
	repo, taskID := sessionTestSetup(t)
	ctx := context.Background()

	a := testutil.NewTestSession(taskID, testutil.At("2025-03-01T09:00:00Z"), testutil.At("2025-03-01T10:00:00Z"))
	b := testutil.NewTestSession(taskID, testutil.At("2025-03-01T10:00:00Z"), testutil.At("2025-03-01T11:00:00Z"))
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	tests := []struct {
		name      string
		start     string
		end       string
		excludeID string
		want      []string
	}{
		{"straddles both", "2025-03-01T09:30:00Z", "2025-03-01T10:30:00Z", "", []string{a.ID, b.ID}},
		{"touching boundary", "2025-03-01T11:00:00Z", "2025-03-01T12:00:00Z", "", nil},
		{"contained", "2025-03-01T09:10:00Z", "2025-03-01T09:20:00Z", "", []string{a.ID}},
		{"excludes self", "2025-03-01T09:00:00Z", "2025-03-01T10:00:00Z", a.ID, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindOverlapping(ctx, testutil.DefaultUser,
				testutil.At(tt.start), testutil.At(tt.end), tt.excludeID)
			require.NoError(t, err)
			var ids []string
			for _, s := range found {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSessionRepo_TaskCascadeDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	tasks := NewSQLiteTaskRepo(db)
	sessions := NewSQLiteSessionRepo(db)

	task := testutil.NewTestTask("Temp")
	require.NoError(t, tasks.Create(ctx, task))
	sess := testutil.NewTestSession(task.ID, testutil.At("2025-03-01T09:00:00Z"), testutil.At("2025-03-01T10:00:00Z"))
	require.NoError(t, sessions.Create(ctx, sess))

	_, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, task.ID)
	require.NoError(t, err)

	_, err = sessions.GetByID(ctx, testutil.DefaultUser, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
