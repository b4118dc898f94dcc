package service

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/alexanderramin/tally/internal/apperrors"
	"github.com/alexanderramin/tally/internal/domain"
	"github.com/alexanderramin/tally/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateMultiple_UpsertsExistingAndNew(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	existing := r.seed(t, "2025-03-01T09:00:00Z", "2025-03-01T10:00:00Z", testutil.WithDescription("old"))
	before := r.count(t)

	got, err := r.service(domain.OverlapWarn).UpdateMultiple(ctx, user, []domain.SessionUpsert{
		{ID: existing.ID, TaskID: r.task.ID, StartTime: "2025-03-01T09:00:00Z", EndTime: "2025-03-01T10:00:00Z", Description: testutil.StrPtr("new")},
		{TaskID: r.task.ID, StartTime: "2025-03-01T13:00:00Z", EndTime: "2025-03-01T14:00:00Z", Description: testutil.StrPtr("afternoon")},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, existing.ID, got[0].ID)
	assert.NotEmpty(t, got[1].ID)

	assert.Equal(t, before+1, r.count(t))
	stored, err := r.sessions.GetByID(ctx, user, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.Description)
}

func TestUpdateMultiple_MayMoveStartAndTask(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	other := testutil.NewTestTask("Review")
	require.NoError(t, r.tasks.Create(ctx, other))
	s := r.seed(t, "2025-03-01T09:00:00Z", "2025-03-01T10:00:00Z", testutil.WithDescription("keep me"))

	_, err := r.service(domain.OverlapWarn).UpdateMultiple(ctx, user, []domain.SessionUpsert{
		{ID: s.ID, TaskID: other.ID, StartTime: "2025-03-01T08:00:00Z", EndTime: "2025-03-01T10:00:00Z", Duration: testutil.IntPtr(7000)},
	})
	require.NoError(t, err)

	stored, err := r.sessions.GetByID(ctx, user, s.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, stored.TaskID)
	assert.True(t, stored.StartTime.Equal(testutil.At("2025-03-01T08:00:00Z")))
	assert.Equal(t, 7000, *stored.Duration)
	assert.Equal(t, "keep me", stored.Description, "omitted description is kept")
}

func TestUpdateMultiple_AllOrNothingOnUnknownTask(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	seeded := []*domain.Session{
		r.seed(t, "2025-03-01T08:00:00Z", "2025-03-01T09:00:00Z", testutil.WithDescription("a")),
		r.seed(t, "2025-03-01T09:00:00Z", "2025-03-01T10:00:00Z", testutil.WithDescription("b")),
		r.seed(t, "2025-03-01T10:00:00Z", "2025-03-01T11:00:00Z", testutil.WithDescription("c")),
	}

	_, err := r.service(domain.OverlapWarn).UpdateMultiple(ctx, user, []domain.SessionUpsert{
		{ID: seeded[0].ID, TaskID: r.task.ID, StartTime: "2025-03-01T08:00:00Z", EndTime: "2025-03-01T09:00:00Z", Description: testutil.StrPtr("changed")},
		{TaskID: r.task.ID, StartTime: "2025-03-01T12:00:00Z", EndTime: "2025-03-01T13:00:00Z"},
		{TaskID: "no-such-task", StartTime: "2025-03-01T14:00:00Z", EndTime: "2025-03-01T15:00:00Z"},
	})
	e, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeUnknownTask, e.Code)
	assert.Equal(t, 2, e.Index)

	assert.Equal(t, len(seeded), r.count(t))
	for _, s := range seeded {
		stored, err := r.sessions.GetByID(ctx, user, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.Description, stored.Description)
	}
}

func TestUpdateMultiple_ValidatesEveryItemBeforeWriting(t *testing.T) {
	r := setupRepos(t)
	existing := r.seed(t, "2025-03-01T09:00:00Z", "2025-03-01T10:00:00Z", testutil.WithDescription("orig"))

	tests := []struct {
		name string
		bad  domain.SessionUpsert
		code apperrors.Code
	}{
		{"bad format", domain.SessionUpsert{TaskID: r.task.ID, StartTime: "2025-03-01T12:00:00", EndTime: "2025-03-01T13:00:00Z"}, apperrors.CodeInvalidDateFormat},
		{"reversed", domain.SessionUpsert{TaskID: r.task.ID, StartTime: "2025-03-01T13:00:00Z", EndTime: "2025-03-01T12:00:00Z"}, apperrors.CodeInvalidDateOrder},
		{"negative duration", domain.SessionUpsert{TaskID: r.task.ID, StartTime: "2025-03-01T12:00:00Z", EndTime: "2025-03-01T13:00:00Z", Duration: testutil.IntPtr(-1)}, apperrors.CodeInvalidDuration},
		{"no task", domain.SessionUpsert{StartTime: "2025-03-01T12:00:00Z", EndTime: "2025-03-01T13:00:00Z"}, apperrors.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.service(domain.OverlapWarn).UpdateMultiple(context.Background(), user, []domain.SessionUpsert{
				{ID: existing.ID, TaskID: r.task.ID, StartTime: "2025-03-01T09:00:00Z", EndTime: "2025-03-01T10:00:00Z", Description: testutil.StrPtr("touched")},
				tt.bad,
			})
			e, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, 1, e.Index)

			stored, err := r.sessions.GetByID(context.Background(), user, existing.ID)
			require.NoError(t, err)
			assert.Equal(t, "orig", stored.Description)
			assert.Equal(t, 1, r.count(t))
		})
	}
}

func TestUpdateMultiple_RollbackOnInjectedWriteFailure(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	existing := r.seed(t, "2025-03-01T09:00:00Z", "2025-03-01T10:00:00Z", testutil.WithDescription("orig"))

	// ExecContext #1 updates the existing row, #2 inserts the new one.
	failUoW := &testutil.FailOnNthExecUoW{
		DB:     r.database,
		FailOn: 2,
		Err:    fmt.Errorf("injected insert failure"),
	}
	svc := NewSessionService(r.sessions, r.tasks, failUoW, domain.OverlapWarn, slog.New(slog.DiscardHandler))

	_, err := svc.UpdateMultiple(ctx, user, []domain.SessionUpsert{
		{ID: existing.ID, TaskID: r.task.ID, StartTime: "2025-03-01T09:00:00Z", EndTime: "2025-03-01T10:00:00Z", Description: testutil.StrPtr("changed")},
		{TaskID: r.task.ID, StartTime: "2025-03-01T11:00:00Z", EndTime: "2025-03-01T12:00:00Z"},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeTransactionFailure, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "injected insert failure")
	assert.Equal(t, int32(2), failUoW.Calls.Load())

	stored, err := r.sessions.GetByID(ctx, user, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", stored.Description, "first write rolled back")
	assert.Equal(t, 1, r.count(t))
}

func TestUpdateMultiple_RejectPolicyRollsBackOverlappingBatch(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	a := r.seed(t, "2025-03-01T09:00:00Z", "2025-03-01T10:00:00Z", testutil.WithDescription("orig"))

	_, err := r.service(domain.OverlapReject).UpdateMultiple(ctx, user, []domain.SessionUpsert{
		{ID: a.ID, TaskID: r.task.ID, StartTime: "2025-03-01T09:00:00Z", EndTime: "2025-03-01T10:00:00Z", Description: testutil.StrPtr("changed")},
		{TaskID: r.task.ID, StartTime: "2025-03-01T09:30:00Z", EndTime: "2025-03-01T10:30:00Z"},
	})
	assert.Equal(t, apperrors.CodeOverlapDetected, apperrors.CodeOf(err))

	stored, err := r.sessions.GetByID(ctx, user, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", stored.Description)
	assert.Equal(t, 1, r.count(t))
}

func TestUpdateMultiple_RejectPolicyJudgesFinalState(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	a := r.seed(t, "2025-03-01T09:00:00Z", "2025-03-01T10:00:00Z")
	b := r.seed(t, "2025-03-01T10:00:00Z", "2025-03-01T11:00:00Z")

	// Moving b first would overlap a's old range; the batch also moves a.
	_, err := r.service(domain.OverlapReject).UpdateMultiple(ctx, user, []domain.SessionUpsert{
		{ID: b.ID, TaskID: r.task.ID, StartTime: "2025-03-01T09:30:00Z", EndTime: "2025-03-01T10:30:00Z"},
		{ID: a.ID, TaskID: r.task.ID, StartTime: "2025-03-01T08:30:00Z", EndTime: "2025-03-01T09:30:00Z"},
	})
	require.NoError(t, err)

	stored, err := r.sessions.GetByID(ctx, user, b.ID)
	require.NoError(t, err)
	assert.True(t, stored.StartTime.Equal(testutil.At("2025-03-01T09:30:00Z")))
}

func TestUpdateMultiple_ForeignIDIsNotTakenOver(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	theirTask := testutil.NewTestTask("Theirs", testutil.WithTaskUser("user-2"))
	require.NoError(t, r.tasks.Create(ctx, theirTask))
	theirs := testutil.NewTestSession(theirTask.ID,
		testutil.At("2025-03-01T09:00:00Z"), testutil.At("2025-03-01T10:00:00Z"),
		testutil.WithSessionUser("user-2"), testutil.WithDescription("private"))
	require.NoError(t, r.sessions.Create(ctx, theirs))

	_, err := r.service(domain.OverlapWarn).UpdateMultiple(ctx, user, []domain.SessionUpsert{
		{ID: theirs.ID, TaskID: r.task.ID, StartTime: "2025-03-01T12:00:00Z", EndTime: "2025-03-01T13:00:00Z", Description: testutil.StrPtr("mine now")},
	})
	assert.Equal(t, apperrors.CodeTransactionFailure, apperrors.CodeOf(err))

	stored, err := r.sessions.GetByID(ctx, "user-2", theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", stored.Description)
	assert.Equal(t, "user-2", stored.UserID)
}

func TestUpdateMultiple_EmptyBatch(t *testing.T) {
	r := setupRepos(t)

	got, err := r.service(domain.OverlapWarn).UpdateMultiple(context.Background(), user, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateMultiple_KeepsCallerIDForNewRows(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	got, err := r.service(domain.OverlapWarn).UpdateMultiple(ctx, user, []domain.SessionUpsert{
		{ID: "client-chosen", TaskID: r.task.ID, StartTime: "2025-03-01T09:00:00Z", EndTime: "2025-03-01T10:00:00Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, "client-chosen", got[0].ID)

	_, err = r.sessions.GetByID(ctx, user, "client-chosen")
	require.NoError(t, err)
}
