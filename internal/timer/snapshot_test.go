package timer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alexanderramin/tally/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTripPaused(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	in := State{
		Status:           domain.TimerPaused,
		StartTime:        start,
		AccumulatedPause: 7500 * time.Millisecond,
		PauseStartedAt:   start.Add(time.Minute),
		RunID:            "run-1",
		Task:             TaskRef{ID: "t1", Name: "Review", Domain: "work", Subdomain: "code", Description: "PR 12"},
	}

	b, err := encodeState(in)
	require.NoError(t, err)
	out, err := decodeState(b)
	require.NoError(t, err)

	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("snapshot round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_WireFields(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	b, err := encodeState(State{
		Status:           domain.TimerRunning,
		StartTime:        start,
		AccumulatedPause: 5 * time.Second,
		RunID:            "run-2",
		Task:             TaskRef{ID: "t1", Name: "Review"},
	})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.Equal(t, "running", fields["status"])
	assert.Equal(t, "2025-01-01T09:00:00Z", fields["startTime"])
	assert.Equal(t, float64(5000), fields["pausedTime"])
	assert.Nil(t, fields["pauseStartedAt"])
	assert.Equal(t, "run-2", fields["runId"])
	assert.Equal(t, "t1", fields["currentTaskId"])
	assert.Equal(t, "Review", fields["currentTaskName"])
	for _, k := range []string{"currentDomain", "currentSubdomain", "currentDescription"} {
		assert.Contains(t, fields, k)
	}
}

func TestSnapshot_IdleIgnoresLeftoverFields(t *testing.T) {
	s, err := decodeState([]byte(`{"status":"idle","startTime":"garbage","pausedTime":12}`))
	require.NoError(t, err)
	assert.Equal(t, State{Status: domain.TimerIdle}, s)
}
