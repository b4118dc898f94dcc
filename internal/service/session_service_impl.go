package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/alexanderramin/tally/internal/apperrors"
	"github.com/alexanderramin/tally/internal/db"
	"github.com/alexanderramin/tally/internal/domain"
	"github.com/alexanderramin/tally/internal/interval"
	"github.com/alexanderramin/tally/internal/repository"
	"github.com/alexanderramin/tally/internal/timer"
	"github.com/google/uuid"
)

type sessionService struct {
	sessions repository.SessionRepo
	tasks    repository.TaskRepo
	uow      db.UnitOfWork
	policy   domain.OverlapPolicy
	logger   *slog.Logger
	observer UseCaseObserver
}

// NewSessionService builds the session service. Writes run through uow with
// transaction-scoped repositories; sessions and tasks serve plain reads.
func NewSessionService(
	sessions repository.SessionRepo,
	tasks repository.TaskRepo,
	uow db.UnitOfWork,
	policy domain.OverlapPolicy,
	logger *slog.Logger,
	observers ...UseCaseObserver,
) SessionService {
	if policy == "" {
		policy = domain.OverlapWarn
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionService{
		sessions: sessions,
		tasks:    tasks,
		uow:      uow,
		policy:   policy,
		logger:   logger,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *sessionService) checker(source interval.OverlapSource) interval.Checker {
	return interval.Checker{Source: source, Policy: s.policy, Logger: s.logger}
}

func (s *sessionService) Insert(ctx context.Context, userID string, in domain.NewSession) (out *domain.Session, err error) {
	ctx, done := beginUseCase(ctx, s.observer, "insert-session", map[string]any{"user_id": userID})
	defer func() { done(err) }()

	if err = requireTaskID(in.TaskID); err != nil {
		return nil, err
	}
	iv, err := interval.Validate(interval.Candidate{
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Duration:  in.Duration,
	})
	if err != nil {
		return nil, err
	}

	sess := &domain.Session{
		ID:          uuid.New().String(),
		UserID:      userID,
		TaskID:      in.TaskID,
		StartTime:   iv.Start,
		EndTime:     iv.End,
		Duration:    in.Duration,
		Description: in.Description,
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return s.createChecked(ctx, tx, sess, iv)
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) RecordTimerRun(ctx context.Context, userID string, run timer.Finished) (out *domain.Session, err error) {
	fields := map[string]any{"user_id": userID, "run_id": run.RunID}
	ctx, done := beginUseCase(ctx, s.observer, "record-timer-run", fields)
	defer func() { done(err) }()

	if run.RunID == "" {
		return nil, apperrors.Field(apperrors.CodeInvalidArgument, "runId", "run id is required")
	}
	if err = requireTaskID(run.Task.ID); err != nil {
		return nil, err
	}
	iv, err := interval.New(run.StartTime, run.EndTime)
	if err != nil {
		return nil, err
	}
	duration := run.Duration
	if err = interval.CheckDuration(iv, &duration); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteSessionRepo(tx)

		existing, err := txSessions.GetByID(ctx, userID, run.RunID)
		if err == nil {
			fields["replayed"] = true
			out = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		sess := &domain.Session{
			ID:          run.RunID,
			UserID:      userID,
			TaskID:      run.Task.ID,
			StartTime:   iv.Start,
			EndTime:     iv.End,
			Duration:    &duration,
			Description: run.Task.Description,
		}
		if err := s.createChecked(ctx, tx, sess, iv); err != nil {
			return err
		}
		out = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// createChecked verifies task ownership and the overlap policy, then inserts.
func (s *sessionService) createChecked(ctx context.Context, tx db.DBTX, sess *domain.Session, iv interval.Interval) error {
	if err := ensureTask(ctx, repository.NewSQLiteTaskRepo(tx), sess.UserID, sess.TaskID); err != nil {
		return err
	}
	txSessions := repository.NewSQLiteSessionRepo(tx)
	if _, err := s.checker(txSessions).Check(ctx, sess.UserID, iv, sess.ID); err != nil {
		return err
	}
	return txSessions.Create(ctx, sess)
}

func (s *sessionService) Update(ctx context.Context, userID, id string, patch domain.SessionPatch) (out *domain.Session, err error) {
	ctx, done := beginUseCase(ctx, s.observer, "update-session", map[string]any{"user_id": userID, "session_id": id})
	defer func() { done(err) }()

	var newEnd *time.Time
	if patch.EndTime != nil {
		end, err := interval.ParseInstant("endTime", *patch.EndTime)
		if err != nil {
			return nil, err
		}
		newEnd = &end
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteSessionRepo(tx)

		sess, err := txSessions.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}

		// Start time and task are fixed on this path.
		if patch.Description != nil {
			sess.Description = *patch.Description
		}
		if patch.Duration != nil {
			sess.Duration = patch.Duration
		}
		if newEnd != nil {
			sess.EndTime = *newEnd
		}

		iv, err := interval.New(sess.StartTime, sess.EndTime)
		if err != nil {
			return err
		}
		if err := interval.CheckDuration(iv, sess.Duration); err != nil {
			return err
		}
		if _, err := s.checker(txSessions).Check(ctx, userID, iv, sess.ID); err != nil {
			return err
		}
		if err := txSessions.Update(ctx, sess); err != nil {
			return err
		}
		out = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *sessionService) Delete(ctx context.Context, userID, id string) (deleted bool, err error) {
	fields := map[string]any{"user_id": userID, "session_id": id}
	ctx, done := beginUseCase(ctx, s.observer, "delete-session", fields)
	defer func() { done(err) }()

	deleted, err = s.sessions.Delete(ctx, userID, id)
	fields["deleted"] = deleted
	return deleted, err
}

func (s *sessionService) GetByID(ctx context.Context, userID, id string) (*domain.Session, error) {
	return s.sessions.GetByID(ctx, userID, id)
}

func (s *sessionService) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	return s.sessions.ListByUser(ctx, userID)
}

func (s *sessionService) ListByTask(ctx context.Context, userID, taskID string) ([]*domain.Session, error) {
	return s.sessions.ListByTask(ctx, userID, taskID)
}

func (s *sessionService) ListBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.Session, error) {
	return s.sessions.ListBetween(ctx, userID, start, end)
}

func (s *sessionService) ListForDate(ctx context.Context, userID string, date time.Time) ([]*domain.Session, error) {
	start, end := dayBounds(date)
	return s.sessions.ListBetween(ctx, userID, start, end)
}

func (s *sessionService) FindOverlapping(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]*domain.Session, error) {
	return s.sessions.FindOverlapping(ctx, userID, start, end, excludeID)
}

// preparedUpsert is a batch item that passed validation.
type preparedUpsert struct {
	item domain.SessionUpsert
	iv   interval.Interval
}

// UpdateMultiple validates every item before touching storage, then applies
// all of them in one transaction. An item whose ID names an existing session
// of the user updates it, including start time and task; any other item is
// inserted. Description is kept when omitted, duration is replaced as given.
// The overlap policy is evaluated once all writes are visible in the
// transaction. Any failure rolls back the whole batch.
func (s *sessionService) UpdateMultiple(ctx context.Context, userID string, items []domain.SessionUpsert) (out []*domain.Session, err error) {
	fields := map[string]any{"user_id": userID, "items": len(items)}
	ctx, done := beginUseCase(ctx, s.observer, "update-multiple-sessions", fields)
	defer func() { done(err) }()

	if len(items) == 0 {
		return []*domain.Session{}, nil
	}

	prepared := make([]preparedUpsert, len(items))
	for i, item := range items {
		item.ID = strings.TrimSpace(item.ID)
		if err = requireTaskID(item.TaskID); err != nil {
			return nil, atIndex(err, i)
		}
		iv, verr := interval.Validate(interval.Candidate{
			StartTime: item.StartTime,
			EndTime:   item.EndTime,
			Duration:  item.Duration,
		})
		if verr != nil {
			err = atIndex(verr, i)
			return nil, err
		}
		prepared[i] = preparedUpsert{item: item, iv: iv}
	}

	var inserted, updated int
	written := make([]*domain.Session, len(prepared))
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteSessionRepo(tx)
		txTasks := repository.NewSQLiteTaskRepo(tx)

		for i, p := range prepared {
			if err := ensureTask(ctx, txTasks, userID, p.item.TaskID); err != nil {
				return atIndex(err, i)
			}

			var existing *domain.Session
			if p.item.ID != "" {
				found, err := txSessions.GetByID(ctx, userID, p.item.ID)
				switch {
				case err == nil:
					existing = found
				case !errors.Is(err, repository.ErrNotFound):
					return err
				}
			}

			if existing != nil {
				existing.TaskID = p.item.TaskID
				existing.StartTime = p.iv.Start
				existing.EndTime = p.iv.End
				existing.Duration = p.item.Duration
				if p.item.Description != nil {
					existing.Description = *p.item.Description
				}
				if err := txSessions.Update(ctx, existing); err != nil {
					return err
				}
				written[i] = existing
				updated++
				continue
			}

			sess := &domain.Session{
				ID:        p.item.ID,
				UserID:    userID,
				TaskID:    p.item.TaskID,
				StartTime: p.iv.Start,
				EndTime:   p.iv.End,
				Duration:  p.item.Duration,
			}
			if sess.ID == "" {
				sess.ID = uuid.New().String()
			}
			if p.item.Description != nil {
				sess.Description = *p.item.Description
			}
			if err := txSessions.Create(ctx, sess); err != nil {
				return err
			}
			written[i] = sess
			inserted++
		}

		return s.checkBatchOverlaps(ctx, txSessions, userID, prepared, written)
	})
	fields["inserted"] = inserted
	fields["updated"] = updated
	if err != nil {
		err = asTransactionFailure(err)
		return nil, err
	}
	return written, nil
}

// checkBatchOverlaps applies the overlap policy to every written item against
// the final in-transaction state, using one range query for the whole batch.
func (s *sessionService) checkBatchOverlaps(ctx context.Context, txSessions repository.SessionRepo, userID string, prepared []preparedUpsert, written []*domain.Session) error {
	if s.policy == domain.OverlapAllow {
		return nil
	}

	ivs := make([]interval.Interval, len(prepared))
	for i, p := range prepared {
		ivs[i] = p.iv
	}
	w := window(ivs)
	candidates, err := txSessions.FindOverlapping(ctx, userID, w.Start, w.End, "")
	if err != nil {
		return err
	}

	check := s.checker(nil)
	for i, sess := range written {
		found := interval.Overlapping(ivs[i], candidates, sess.ID)
		if err := check.Apply(ctx, userID, ivs[i], found); err != nil {
			return atIndex(err, i)
		}
	}
	return nil
}

func ensureTask(ctx context.Context, tasks repository.TaskRepo, userID, taskID string) error {
	ok, err := tasks.Exists(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Field(apperrors.CodeUnknownTask, "taskId", "unknown task "+taskID)
	}
	return nil
}
