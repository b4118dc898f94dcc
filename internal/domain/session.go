package domain

import "time"

// Session is one persisted span of work on a task.
//
// Duration, when set, is the effective work time in whole seconds: the
// pause-adjusted elapsed for timer-produced sessions. It may be smaller than
// EndTime-StartTime but never larger.
type Session struct {
	ID          string
	UserID      string
	TaskID      string
	StartTime   time.Time
	EndTime     time.Time
	Duration    *int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Span returns the raw wall-clock length of the session.
func (s *Session) Span() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// EffectiveSeconds returns Duration when set, otherwise the wall-clock span.
func (s *Session) EffectiveSeconds() int {
	if s.Duration != nil {
		return *s.Duration
	}
	return int(s.Span().Seconds())
}

// NewSession is the caller input for a single session insert.
// Timestamps are ISO-8601 UTC strings and are validated before use.
type NewSession struct {
	TaskID      string
	StartTime   string
	EndTime     string
	Duration    *int
	Description string
}

// SessionPatch is the caller input for a single session update. Only
// description, duration and end time can change on this path.
type SessionPatch struct {
	Description *string
	Duration    *int
	EndTime     *string
}

// SessionUpsert is one item of a batch reconciliation. Unlike SessionPatch it
// may move the start time and re-attribute the task.
type SessionUpsert struct {
	ID          string
	TaskID      string
	StartTime   string
	EndTime     string
	Duration    *int
	Description *string
}
