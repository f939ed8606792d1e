// Package service provides the task manager implementation
package service

import (
	"context"
	"sync"
	"time"

	perr "slotwatch/internal/platform/errors"
	"slotwatch/internal/platform/logger"
	ptime "slotwatch/internal/platform/time"
	"slotwatch/internal/services/tasks/domain"
	"slotwatch/internal/services/tasks/repo"
)

// DefaultTTL is the cleanup age when none is configured
const DefaultTTL = 24 * time.Hour

// Manager implements domain.ManagerPort. One instance per process; the
// mutex covers the in-memory map and the durable write together so a
// spilled record never runs ahead of memory
type Manager struct {
	mu      sync.Mutex
	tasks   map[string]domain.Task
	storage *repo.Tasks
	clock   ptime.Clock
	log     logger.Logger
	ttl     time.Duration
}

// Config for the task manager
type Config struct {
	Clock ptime.Clock
	TTL   time.Duration
}

// New constructs the manager with a required repo
func New(storage *repo.Tasks, log logger.Logger, cfg Config) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = ptime.System{}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Manager{
		tasks:   map[string]domain.Task{},
		storage: storage,
		clock:   cfg.Clock,
		log:     log,
		ttl:     cfg.TTL,
	}
}

// Create implements domain.ManagerPort. IDs have second resolution, so the
// single-active-run check is also what keeps them unique
func (m *Manager) Create(ctx context.Context) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := ptime.NowJST(m.clock)
	for _, t := range m.tasks {
		if t.Status.Active() {
			return domain.Task{}, perr.Conflictf(
				"run %s active for %.0fs", t.ID, t.Elapsed(now).Seconds())
		}
	}

	t := domain.Task{
		ID:        ptime.TaskID(m.clock),
		Status:    domain.StatusPending,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := m.persist(ctx, t); err != nil {
		// a stillborn pending entry would block every later run
		delete(m.tasks, t.ID)
		return domain.Task{}, err
	}
	m.log.Info().Str("task", t.ID).Msg("tasks: created")
	return t, nil
}

// Start implements domain.ManagerPort
func (m *Manager) Start(ctx context.Context, id string) error {
	return m.mutate(ctx, id, domain.StatusRunning, func(t *domain.Task) {})
}

// Progress implements domain.ManagerPort
func (m *Manager) Progress(ctx context.Context, id string, current, total int, clinic string) error {
	return m.mutate(ctx, id, domain.StatusRunning, func(t *domain.Task) {
		t.Progress = domain.Progress{Current: current, Total: total, Clinic: clinic}
	})
}

// Complete implements domain.ManagerPort
func (m *Manager) Complete(ctx context.Context, id, result string) error {
	return m.mutate(ctx, id, domain.StatusCompleted, func(t *domain.Task) {
		t.Result = result
		t.CompletedAt = ptime.Ptr(t.UpdatedAt)
	})
}

// Fail implements domain.ManagerPort
func (m *Manager) Fail(ctx context.Context, id, msg string) error {
	return m.mutate(ctx, id, domain.StatusFailed, func(t *domain.Task) {
		t.Error = msg
		t.CompletedAt = ptime.Ptr(t.UpdatedAt)
	})
}

// mutate applies one transition under the mutex. UpdatedAt is stamped
// before apply so finishers can reuse it
func (m *Manager) mutate(ctx context.Context, id string, to domain.Status, apply func(*domain.Task)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return perr.NotFoundf("task %s", id)
	}
	if !t.Status.CanAdvance(to) {
		return perr.Conflictf("task %s: %s cannot move to %s", id, t.Status, to)
	}
	t.Status = to
	t.UpdatedAt = ptime.NowJST(m.clock)
	apply(&t)
	return m.persist(ctx, t)
}

// persist spills under the held mutex. Memory is updated first so a disk
// failure never loses a recorded transition; the local write failure
// still surfaces to the caller
func (m *Manager) persist(ctx context.Context, t domain.Task) error {
	m.tasks[t.ID] = t
	return m.storage.Save(ctx, t)
}

// Get implements domain.ManagerPort: memory, then spilled state
func (m *Manager) Get(ctx context.Context, id string) (domain.Task, error) {
	m.mu.Lock()
	if t, ok := m.tasks[id]; ok {
		m.mu.Unlock()
		return t, nil
	}
	m.mu.Unlock()

	t, err := m.storage.Load(ctx, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Task{}, perr.NotFoundf("task %s", id)
		}
		return domain.Task{}, err
	}

	m.mu.Lock()
	m.tasks[t.ID] = t
	m.mu.Unlock()
	return t, nil
}

// Active implements domain.ManagerPort
func (m *Manager) Active() (domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.Status.Active() {
			return t, true
		}
	}
	return domain.Task{}, false
}

// Cleanup implements domain.ManagerPort. Active tasks are never collected
func (m *Manager) Cleanup(ctx context.Context, age time.Duration) (int, error) {
	if age <= 0 {
		age = m.ttl
	}
	cutoff := ptime.NowJST(m.clock).Add(-age)

	ids, err := m.storage.IDs(ctx)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, id := range ids {
		t, ok := m.tasks[id]
		if !ok {
			loaded, err := m.storage.Load(ctx, id)
			if err != nil {
				m.log.Warn().Err(err).Str("task", id).Msg("tasks: cleanup skipping unreadable record")
				continue
			}
			t = loaded
		}
		if t.Status.Active() || t.UpdatedAt.After(cutoff) {
			continue
		}
		if err := m.storage.Delete(ctx, id); err != nil {
			return removed, err
		}
		delete(m.tasks, id)
		removed++
	}
	if removed > 0 {
		m.log.Info().Int("removed", removed).Msg("tasks: cleanup")
	}
	return removed, nil
}
