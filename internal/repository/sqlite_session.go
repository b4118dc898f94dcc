package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/tally/internal/db"
	"github.com/alexanderramin/tally/internal/domain"
)

const sessionColumns = `id, user_id, task_id, start_time, end_time, duration, description, created_at, updated_at`

// SQLiteSessionRepo implements SessionRepo using a SQLite database or transaction.
type SQLiteSessionRepo struct {
	db db.DBTX
}

// NewSQLiteSessionRepo creates a new SQLiteSessionRepo.
func NewSQLiteSessionRepo(db db.DBTX) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: db}
}

func (r *SQLiteSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = nowUTC()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}

	query := `INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.TaskID,
		formatTime(s.StartTime),
		formatTime(s.EndTime),
		nullableIntToValue(s.Duration),
		s.Description,
		formatTime(s.CreatedAt),
		formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) GetByID(ctx context.Context, userID, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? AND user_id = ?`
	row := r.db.QueryRowContext(ctx, query, id, userID)
	return r.scanSession(row)
}

func (r *SQLiteSessionRepo) Update(ctx context.Context, s *domain.Session) error {
	s.UpdatedAt = nowUTC()

	query := `UPDATE sessions
		SET task_id = ?, start_time = ?, end_time = ?, duration = ?, description = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		s.TaskID,
		formatTime(s.StartTime),
		formatTime(s.EndTime),
		nullableIntToValue(s.Duration),
		s.Description,
		formatTime(s.UpdatedAt),
		s.ID,
		s.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteSessionRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting session: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteSessionRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = ? ORDER BY start_time`
	return r.query(ctx, "listing sessions by user", query, userID)
}

func (r *SQLiteSessionRepo) ListByTask(ctx context.Context, userID, taskID string) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE user_id = ? AND task_id = ? ORDER BY start_time`
	return r.query(ctx, "listing sessions by task", query, userID, taskID)
}

func (r *SQLiteSessionRepo) ListBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE user_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time`
	return r.query(ctx, "listing sessions between dates", query, userID, formatTime(start), formatTime(end))
}

func (r *SQLiteSessionRepo) FindOverlapping(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE user_id = ? AND start_time < ? AND end_time > ? AND id != ?
		ORDER BY start_time`
	return r.query(ctx, "finding overlapping sessions", query, userID, formatTime(end), formatTime(start), excludeID)
}

func (r *SQLiteSessionRepo) query(ctx context.Context, what, query string, args ...any) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()
	return r.scanSessions(rows)
}

// scanSession scans a single session from a *sql.Row.
func (r *SQLiteSessionRepo) scanSession(row *sql.Row) (*domain.Session, error) {
	var s domain.Session
	var raw rawSessionTimes

	err := row.Scan(
		&s.ID, &s.UserID, &s.TaskID, &raw.start, &raw.end, &raw.duration,
		&s.Description, &raw.created, &raw.updated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	return r.populateSession(&s, raw)
}

// scanSessions scans multiple sessions from *sql.Rows.
func (r *SQLiteSessionRepo) scanSessions(rows *sql.Rows) ([]*domain.Session, error) {
	var sessions []*domain.Session
	for rows.Next() {
		var s domain.Session
		var raw rawSessionTimes

		err := rows.Scan(
			&s.ID, &s.UserID, &s.TaskID, &raw.start, &raw.end, &raw.duration,
			&s.Description, &raw.created, &raw.updated,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}

		session, parseErr := r.populateSession(&s, raw)
		if parseErr != nil {
			return nil, parseErr
		}

		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

type rawSessionTimes struct {
	start, end, created, updated string
	duration                     sql.NullInt64
}

// populateSession fills in parsed fields on a Session after scanning raw strings.
func (r *SQLiteSessionRepo) populateSession(s *domain.Session, raw rawSessionTimes) (*domain.Session, error) {
	var err error
	if s.StartTime, err = parseTime(raw.start); err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	if s.EndTime, err = parseTime(raw.end); err != nil {
		return nil, fmt.Errorf("parsing end_time: %w", err)
	}
	if s.CreatedAt, err = parseTime(raw.created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if s.UpdatedAt, err = parseTime(raw.updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	s.Duration = nullIntToPtr(raw.duration)
	return s, nil
}
