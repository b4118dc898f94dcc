package service

import (
	"context"
	"time"

	"github.com/alexanderramin/tally/internal/domain"
	"github.com/alexanderramin/tally/internal/timer"
)

// SessionService owns every session write. All calls are scoped by userID;
// a session owned by another user behaves exactly like a missing one.
type SessionService interface {
	Insert(ctx context.Context, userID string, in domain.NewSession) (*domain.Session, error)
	// RecordTimerRun stores a finished timer run under its RunID. Recording
	// the same run again returns the stored session unchanged.
	RecordTimerRun(ctx context.Context, userID string, run timer.Finished) (*domain.Session, error)
	Update(ctx context.Context, userID, id string, patch domain.SessionPatch) (*domain.Session, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	ListByTask(ctx context.Context, userID, taskID string) ([]*domain.Session, error)
	ListBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.Session, error)
	// ListForDate returns the sessions starting on the UTC calendar day of date.
	ListForDate(ctx context.Context, userID string, date time.Time) ([]*domain.Session, error)
	FindOverlapping(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]*domain.Session, error)
	// UpdateMultiple applies a batch of upserts atomically.
	UpdateMultiple(ctx context.Context, userID string, items []domain.SessionUpsert) ([]*domain.Session, error)
}

type TaskService interface {
	Create(ctx context.Context, userID, name, domainName, subdomain string) (*domain.Task, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Task, error)
	List(ctx context.Context, userID string) ([]*domain.Task, error)
}
