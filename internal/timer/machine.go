// Package timer implements the resumable work timer. A Machine moves between
// idle, running and paused, snapshots itself to a durable store on every
// transition and tick, and hands back a Finished run when stopped.
package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/tally/internal/apperrors"
	"github.com/alexanderramin/tally/internal/domain"
	"github.com/google/uuid"
)

// DefaultTickInterval is the display and snapshot cadence of Run.
const DefaultTickInterval = time.Second

// KeyForUser returns the snapshot key of a user's timer.
func KeyForUser(userID string) string {
	return "timer/" + userID
}

// TaskRef is the task metadata a run is attributed to.
type TaskRef struct {
	ID          string
	Name        string
	Domain      string
	Subdomain   string
	Description string
}

// State is the runtime state of a timer. The zero value is idle.
type State struct {
	Status           domain.TimerStatus
	StartTime        time.Time
	AccumulatedPause time.Duration
	PauseStartedAt   time.Time
	RunID            string
	Task             TaskRef
}

// ElapsedAt returns the pause-adjusted running time as of now.
func (s State) ElapsedAt(now time.Time) time.Duration {
	var d time.Duration
	switch s.Status {
	case domain.TimerRunning:
		d = now.Sub(s.StartTime) - s.AccumulatedPause
	case domain.TimerPaused:
		d = s.PauseStartedAt.Sub(s.StartTime) - s.AccumulatedPause
	default:
		return 0
	}
	if d < 0 {
		return 0
	}
	return d
}

// Active reports whether the timer is running or paused.
func (s State) Active() bool {
	return s.Status == domain.TimerRunning || s.Status == domain.TimerPaused
}

// Finished describes a stopped run. EndTime-StartTime is the wall-clock span;
// Duration is the pause-adjusted elapsed in whole seconds.
type Finished struct {
	RunID     string
	Task      TaskRef
	StartTime time.Time
	EndTime   time.Time
	Elapsed   time.Duration
	Duration  int
}

// Span returns the wall-clock length of the run.
func (f Finished) Span() time.Duration {
	return f.EndTime.Sub(f.StartTime)
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(m *Machine) { m.clock = c }
}

// WithKey sets the snapshot key. See KeyForUser.
func WithKey(key string) Option {
	return func(m *Machine) { m.key = key }
}

// WithLogger sets the logger for recovery warnings and tick failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// Machine is a single user's timer. It is safe for concurrent use.
type Machine struct {
	mu        sync.Mutex
	state     State
	finishing bool

	store  SnapshotStore
	clock  Clock
	key    string
	logger *slog.Logger
}

// New returns an idle Machine. Call Rehydrate to restore a persisted run.
func New(store SnapshotStore, opts ...Option) *Machine {
	m := &Machine{
		store:  store,
		clock:  systemClock{},
		key:    KeyForUser("local"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Elapsed returns the current pause-adjusted elapsed time.
func (m *Machine) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ElapsedAt(m.clock.Now())
}

// Start begins a new run for task.
func (m *Machine) Start(ctx context.Context, task TaskRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finishing {
		return errStopInFlight
	}
	if m.state.Status != domain.TimerIdle && m.state.Status != "" {
		return apperrors.New(apperrors.CodeTimerAlreadyActive, "a timer is already active")
	}

	next := State{
		Status:    domain.TimerRunning,
		StartTime: m.clock.Now().UTC(),
		RunID:     uuid.New().String(),
		Task:      task,
	}
	if err := m.commit(ctx, next); err != nil {
		return err
	}
	m.logger.DebugContext(ctx, "timer_started", "run_id", next.RunID, "task_id", task.ID)
	return nil
}

// Pause freezes elapsed time.
func (m *Machine) Pause(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finishing {
		return errStopInFlight
	}
	if m.state.Status != domain.TimerRunning {
		return apperrors.New(apperrors.CodeTimerNotRunning, "timer is not running")
	}

	next := m.state
	next.Status = domain.TimerPaused
	next.PauseStartedAt = m.clock.Now().UTC()
	return m.commit(ctx, next)
}

// Resume continues a paused run, adding the pause to the accumulated total.
func (m *Machine) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finishing {
		return errStopInFlight
	}
	if m.state.Status != domain.TimerPaused {
		return apperrors.New(apperrors.CodeTimerNotPaused, "timer is not paused")
	}

	now := m.clock.Now().UTC()
	next := m.state
	if gap := now.Sub(next.PauseStartedAt); gap > 0 {
		next.AccumulatedPause += gap
	}
	next.Status = domain.TimerRunning
	next.PauseStartedAt = time.Time{}
	return m.commit(ctx, next)
}

// Tick persists the current snapshot and returns the elapsed time. It is a
// no-op unless the timer is running.
func (m *Machine) Tick(ctx context.Context) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if m.state.Status != domain.TimerRunning {
		return m.state.ElapsedAt(now), nil
	}
	if err := m.commit(ctx, m.state); err != nil {
		return 0, err
	}
	return m.state.ElapsedAt(now), nil
}

// Run calls Tick every interval until ctx is done. onTick, when non-nil,
// receives the elapsed time after each tick. Snapshot failures are logged
// and do not stop the loop.
func (m *Machine) Run(ctx context.Context, every time.Duration, onTick func(time.Duration)) {
	if every <= 0 {
		every = DefaultTickInterval
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed, err := m.Tick(ctx)
			if err != nil {
				m.logger.WarnContext(ctx, "timer_tick_failed", "error", err)
				continue
			}
			if onTick != nil {
				onTick(elapsed)
			}
		}
	}
}

// Stop ends the run and resets the timer to idle. The caller owns
// persisting the returned run; use Finish to have the two serialized.
func (m *Machine) Stop(ctx context.Context) (*Finished, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finishing {
		return nil, errStopInFlight
	}
	f, err := m.finishedLocked()
	if err != nil {
		return nil, err
	}
	if err := m.commit(ctx, State{Status: domain.TimerIdle}); err != nil {
		return nil, err
	}
	m.logger.DebugContext(ctx, "timer_stopped", "run_id", f.RunID, "duration_s", f.Duration)
	return f, nil
}

// Finish stops the run, hands it to persist and clears the timer only when
// persist succeeds. On failure the timer keeps its prior state so the run
// can be retried; retries carry the same RunID. Concurrent Start, Stop or
// Finish calls fail with TIMER_STOP_IN_FLIGHT until persist returns.
func (m *Machine) Finish(ctx context.Context, persist func(context.Context, Finished) error) (*Finished, error) {
	m.mu.Lock()
	if m.finishing {
		m.mu.Unlock()
		return nil, errStopInFlight
	}
	f, err := m.finishedLocked()
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.finishing = true
	m.mu.Unlock()

	returned := false
	defer func() {
		if !returned {
			m.mu.Lock()
			m.finishing = false
			m.mu.Unlock()
		}
	}()
	persistErr := persist(ctx, *f)
	returned = true

	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishing = false

	if persistErr != nil {
		return nil, persistErr
	}
	if err := m.commit(ctx, State{Status: domain.TimerIdle}); err != nil {
		return nil, err
	}
	m.logger.DebugContext(ctx, "timer_finished", "run_id", f.RunID, "duration_s", f.Duration)
	return f, nil
}

// Rehydrate restores the persisted snapshot. A missing snapshot leaves the
// timer idle. A snapshot that cannot describe a live run is logged, cleared
// and replaced by idle. A store read failure is logged and leaves the timer
// idle without touching the stored snapshot.
func (m *Machine) Rehydrate(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.store.Get(ctx, m.key)
	if err != nil {
		m.logger.WarnContext(ctx, "timer_snapshot_unreadable",
			"key", m.key,
			"error", err,
		)
		m.state = State{Status: domain.TimerIdle}
		return m.state, nil
	}
	if !ok || len(raw) == 0 {
		m.state = State{Status: domain.TimerIdle}
		return m.state, nil
	}

	s, decodeErr := decodeState(raw)
	if decodeErr != nil {
		m.logger.WarnContext(ctx, "timer_snapshot_corrupt",
			"key", m.key,
			"error", decodeErr,
		)
		if err := m.commit(ctx, State{Status: domain.TimerIdle}); err != nil {
			return State{}, err
		}
		return m.state, nil
	}

	if s.Active() && s.RunID == "" {
		s.RunID = uuid.New().String()
	}
	m.state = s
	return m.state, nil
}

func (m *Machine) finishedLocked() (*Finished, error) {
	if !m.state.Active() {
		return nil, apperrors.New(apperrors.CodeTimerIdle, "no active timer")
	}
	now := m.clock.Now().UTC()
	elapsed := m.state.ElapsedAt(now)
	return &Finished{
		RunID:     m.state.RunID,
		Task:      m.state.Task,
		StartTime: m.state.StartTime,
		EndTime:   now,
		Elapsed:   elapsed,
		Duration:  int(elapsed / time.Second),
	}, nil
}

// commit writes next to the store and adopts it only when the write succeeds.
func (m *Machine) commit(ctx context.Context, next State) error {
	b, err := encodeState(next)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, m.key, b); err != nil {
		return apperrors.Wrap(apperrors.CodeUnknown, "saving timer snapshot", err)
	}
	m.state = next
	return nil
}

var errStopInFlight = apperrors.New(apperrors.CodeTimerStopInFlight, "a stop is already being saved")
