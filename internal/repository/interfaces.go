package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/tally/internal/apperrors"
	"github.com/alexanderramin/tally/internal/domain"
)

// ErrNotFound is returned when a row does not exist or is not owned by the
// requesting user. The two cases are deliberately indistinguishable.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "not found")

// SessionRepo persists sessions. Every read and write is filtered by user id.
type SessionRepo interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, userID, id string) (*domain.Session, error)
	// Update writes task, start, end, duration and description of an existing
	// row. Which of those a caller may change is a service-level policy.
	Update(ctx context.Context, s *domain.Session) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, userID, id string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	ListByTask(ctx context.Context, userID, taskID string) ([]*domain.Session, error)
	// ListBetween returns sessions starting in [start, end).
	ListBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.Session, error)
	// FindOverlapping returns sessions intersecting [start, end), skipping excludeID.
	FindOverlapping(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]*domain.Session, error)
}

// TaskRepo is the minimal task collaborator sessions depend on.
type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, userID, id string) (*domain.Task, error)
	Exists(ctx context.Context, userID, id string) (bool, error)
	List(ctx context.Context, userID string) ([]*domain.Task, error)
}
