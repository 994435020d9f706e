package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/forge"
	"github.com/aretw0/forge/internal/logging"
	"github.com/aretw0/forge/internal/runtime"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock is held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Observer is notified after a session project was changed and saved.
// It runs while the session lock is held and must not call back into the Manager
// for the same session.
type Observer func(ctx context.Context, previous, current *domain.Project)

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store  ports.ProjectStore
	engine *forge.Engine

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker      ports.DistributedLocker // Optional distributed locker
	lockTTL     time.Duration
	transcripts ports.TranscriptStore // Optional raw response archive
	observers   []Observer
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEngine sets the engine used to parse and materialize responses.
func WithEngine(engine *forge.Engine) Option {
	return func(m *Manager) {
		m.engine = engine
	}
}

// WithTranscripts archives every ingested response.
func WithTranscripts(store ports.TranscriptStore) Option {
	return func(m *Manager) {
		m.transcripts = store
	}
}

// WithObserver registers a change observer. May be given more than once.
func WithObserver(obs Observer) Option {
	return func(m *Manager) {
		m.observers = append(m.observers, obs)
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.ProjectStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.engine == nil {
		m.engine = forge.New(forge.WithLogger(m.logger))
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Engine returns the engine responses are ingested with.
func (m *Manager) Engine() *forge.Engine {
	return m.engine
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Project, error) {
	var project *domain.Project
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		project, err = m.store.Load(ctx, sessionID)
		return err
	})
	return project, err
}

// LoadOrCreate tries to load a session. If not found, it initializes a new one.
// The prompt is only used for new sessions.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string, prompt string) (*domain.Project, error) {
	var project *domain.Project
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var created bool
		var err error
		project, created, err = m.loadOrNew(ctx, sessionID, prompt)
		if err != nil || !created {
			return err
		}

		// Persist immediately to reserve the ID
		project.UpdatedAt = m.now()
		if err := m.store.Save(ctx, sessionID, project); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.notify(ctx, nil, project)
		return nil
	})
	return project, err
}

// Ingest parses a generator response and folds it into the session, creating
// the session when needed. Responses for one session are applied in arrival order.
func (m *Manager) Ingest(ctx context.Context, sessionID string, text string) (*domain.Project, runtime.Result, error) {
	var project *domain.Project
	var res runtime.Result
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		previous, created, err := m.loadOrNew(ctx, sessionID, "")
		if err != nil {
			return err
		}

		project, res = m.engine.Ingest(ctx, previous, text)
		parsedSteps := len(project.Steps) - len(previous.Steps)

		if err := m.store.Save(ctx, sessionID, project); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		if m.transcripts != nil {
			t := domain.Transcript{
				SessionID:  sessionID,
				Seq:        project.Responses,
				Steps:      parsedSteps,
				ReceivedAt: project.UpdatedAt,
				Text:       text,
			}
			if err := m.transcripts.Append(ctx, t); err != nil {
				m.logger.Warn("Failed to archive generator response",
					"session_id", sessionID,
					"seq", t.Seq,
					"err", err,
				)
			}
		}

		if created {
			previous = nil
		}
		m.notify(ctx, previous, project)
		return nil
	})
	return project, res, err
}

// CompleteStep marks the step at index as completed. Indexes address the
// accumulated step list; step IDs repeat across responses.
func (m *Manager) CompleteStep(ctx context.Context, sessionID string, index int) (*domain.Project, error) {
	var project *domain.Project
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		previous, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(previous.Steps) {
			return fmt.Errorf("%w: %d of %d", domain.ErrStepIndex, index, len(previous.Steps))
		}
		if previous.Steps[index].Status == domain.StatusCompleted {
			project = previous
			return nil
		}

		project = previous.Snapshot()
		project.Steps[index].Status = domain.StatusCompleted
		project.UpdatedAt = m.now()
		if err := m.store.Save(ctx, sessionID, project); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		m.notify(ctx, previous, project)
		return nil
	})
	return project, err
}

// Save persists the session project.
func (m *Manager) Save(ctx context.Context, sessionID string, project *domain.Project) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, project)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying project store.
func (m *Manager) Store() ports.ProjectStore {
	return m.store
}

// Transcripts returns the transcript store, or nil when responses are not archived.
func (m *Manager) Transcripts() ports.TranscriptStore {
	return m.transcripts
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// loadOrNew returns the stored project, or a fresh unsaved one with created set.
func (m *Manager) loadOrNew(ctx context.Context, sessionID, prompt string) (*domain.Project, bool, error) {
	project, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return project, false, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return domain.NewProject(sessionID, prompt), true, nil
}

func (m *Manager) notify(ctx context.Context, previous, current *domain.Project) {
	for _, obs := range m.observers {
		obs(ctx, previous, current)
	}
}
