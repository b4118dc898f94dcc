package testutil

import (
	"time"

	"github.com/alexanderramin/tally/internal/domain"
	"github.com/google/uuid"
)

// DefaultUser is the owner fixtures are created for unless overridden.
const DefaultUser = "user-1"

// Task options
type TaskOption func(*domain.Task)

func WithTaskUser(userID string) TaskOption {
	return func(t *domain.Task) {
		t.UserID = userID
	}
}

func WithCategory(domainName, subdomain string) TaskOption {
	return func(t *domain.Task) {
		t.Domain = domainName
		t.Subdomain = subdomain
	}
}

func NewTestTask(name string, opts ...TaskOption) *domain.Task {
	t := &domain.Task{
		ID:        uuid.New().String(),
		UserID:    DefaultUser,
		Name:      name,
		Domain:    "work",
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Session options
type SessionOption func(*domain.Session)

func WithSessionUser(userID string) SessionOption {
	return func(s *domain.Session) {
		s.UserID = userID
	}
}

func WithDescription(d string) SessionOption {
	return func(s *domain.Session) {
		s.Description = d
	}
}

func WithDuration(seconds int) SessionOption {
	return func(s *domain.Session) {
		s.Duration = &seconds
	}
}

func WithSessionID(id string) SessionOption {
	return func(s *domain.Session) {
		s.ID = id
	}
}

// NewTestSession builds a session for taskID covering [start, end).
func NewTestSession(taskID string, start, end time.Time, opts ...SessionOption) *domain.Session {
	s := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    DefaultUser,
		TaskID:    taskID,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// At parses an RFC 3339 instant and panics on malformed input.
func At(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StrPtr returns a pointer to v.
func StrPtr(v string) *string { return &v }
