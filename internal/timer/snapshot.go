package timer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/tally/internal/domain"
)

// snapshot is the persisted JSON shape of a State.
type snapshot struct {
	Status             string  `json:"status"`
	StartTime          *string `json:"startTime"`
	PausedTime         int64   `json:"pausedTime"`
	PauseStartedAt     *string `json:"pauseStartedAt"`
	RunID              string  `json:"runId"`
	CurrentTaskID      string  `json:"currentTaskId"`
	CurrentTaskName    string  `json:"currentTaskName"`
	CurrentDomain      string  `json:"currentDomain"`
	CurrentSubdomain   string  `json:"currentSubdomain"`
	CurrentDescription string  `json:"currentDescription"`
}

func formatSnapshotTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func encodeState(s State) ([]byte, error) {
	snap := snapshot{
		Status:             string(s.Status),
		StartTime:          formatSnapshotTime(s.StartTime),
		PausedTime:         s.AccumulatedPause.Milliseconds(),
		PauseStartedAt:     formatSnapshotTime(s.PauseStartedAt),
		RunID:              s.RunID,
		CurrentTaskID:      s.Task.ID,
		CurrentTaskName:    s.Task.Name,
		CurrentDomain:      s.Task.Domain,
		CurrentSubdomain:   s.Task.Subdomain,
		CurrentDescription: s.Task.Description,
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding timer snapshot: %w", err)
	}
	return b, nil
}

// decodeState parses a snapshot and rejects any combination a live machine
// could not have produced.
func decodeState(b []byte) (State, error) {
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return State{}, fmt.Errorf("parsing timer snapshot: %w", err)
	}

	status := domain.TimerStatus(snap.Status)
	if !domain.ValidTimerStatuses[status] {
		return State{}, fmt.Errorf("unknown timer status %q", snap.Status)
	}
	if status == domain.TimerIdle {
		return State{Status: domain.TimerIdle}, nil
	}

	if snap.PausedTime < 0 {
		return State{}, fmt.Errorf("negative pausedTime %d", snap.PausedTime)
	}

	start, err := parseSnapshotTime("startTime", snap.StartTime)
	if err != nil {
		return State{}, err
	}

	s := State{
		Status:           status,
		StartTime:        start,
		AccumulatedPause: time.Duration(snap.PausedTime) * time.Millisecond,
		RunID:            snap.RunID,
		Task: TaskRef{
			ID:          snap.CurrentTaskID,
			Name:        snap.CurrentTaskName,
			Domain:      snap.CurrentDomain,
			Subdomain:   snap.CurrentSubdomain,
			Description: snap.CurrentDescription,
		},
	}

	if status == domain.TimerPaused {
		if s.PauseStartedAt, err = parseSnapshotTime("pauseStartedAt", snap.PauseStartedAt); err != nil {
			return State{}, err
		}
	}
	return s, nil
}

func parseSnapshotTime(field string, v *string) (time.Time, error) {
	if v == nil || *v == "" {
		return time.Time{}, fmt.Errorf("%s missing for active timer", field)
	}
	t, err := time.Parse(time.RFC3339Nano, *v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", field, err)
	}
	return t.UTC(), nil
}
