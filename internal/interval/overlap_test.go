package interval

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alexanderramin/tally/internal/apperrors"
	"github.com/alexanderramin/tally/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource returns sessions overlapping the query from a fixed slice.
type fakeSource struct {
	sessions []*domain.Session
	calls    int
}

func (f *fakeSource) FindOverlapping(_ context.Context, userID string, start, end time.Time, excludeID string) ([]*domain.Session, error) {
	f.calls++
	var owned []*domain.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			owned = append(owned, s)
		}
	}
	return Overlapping(Interval{Start: start, End: end}, owned, excludeID), nil
}

func session(id, user string, start time.Time, d time.Duration) *domain.Session {
	return &domain.Session{ID: id, UserID: user, StartTime: start, EndTime: start.Add(d)}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, domain.OverlapWarn, p)

	p, err = ParsePolicy(" Reject ")
	require.NoError(t, err)
	assert.Equal(t, domain.OverlapReject, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}

func TestOverlapping_ExcludesID(t *testing.T) {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	existing := []*domain.Session{
		session("a", "u1", base, time.Hour),
		session("b", "u1", base.Add(30*time.Minute), time.Hour),
		session("c", "u1", base.Add(3*time.Hour), time.Hour),
	}
	iv := Interval{Start: base.Add(15 * time.Minute), End: base.Add(45 * time.Minute)}

	got := Overlapping(iv, existing, "a")
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestChecker_Policies(t *testing.T) {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{sessions: []*domain.Session{
		session("mine", "u1", base, time.Hour),
		session("theirs", "u2", base, time.Hour),
	}}
	iv := Interval{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)}
	ctx := context.Background()

	t.Run("allow skips lookup", func(t *testing.T) {
		src.calls = 0
		found, err := Checker{Source: src, Policy: domain.OverlapAllow}.Check(ctx, "u1", iv, "")
		require.NoError(t, err)
		assert.Empty(t, found)
		assert.Zero(t, src.calls)
	})

	t.Run("warn logs and returns overlaps", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		found, err := Checker{Source: src, Policy: domain.OverlapWarn, Logger: logger}.Check(ctx, "u1", iv, "")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "mine", found[0].ID, "other users' sessions never count")
		assert.Contains(t, buf.String(), "session_overlap")
		assert.Contains(t, buf.String(), "overlapping_ids=mine")
	})

	t.Run("reject fails with ids", func(t *testing.T) {
		_, err := Checker{Source: src, Policy: domain.OverlapReject}.Check(ctx, "u1", iv, "")
		require.Error(t, err)
		e, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeOverlapDetected, e.Code)
		assert.Equal(t, "mine", e.Metadata["overlapping_ids"])
	})

	t.Run("reject ignores excluded self", func(t *testing.T) {
		_, err := Checker{Source: src, Policy: domain.OverlapReject}.Check(ctx, "u1", iv, "mine")
		assert.NoError(t, err)
	})
}
