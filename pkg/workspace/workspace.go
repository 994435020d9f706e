// Package workspace holds one in-process project as an observable value.
//
// Every mutation runs a single recompute to completion under the workspace lock:
// materialize, compile the mount descriptor when the tree changed, publish it to
// the sandbox, notify subscribers. Recomputing unchanged input does nothing.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/forge"
	"github.com/aretw0/forge/internal/logging"
	"github.com/aretw0/forge/internal/runtime"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/ports"
)

// Snapshot is an immutable view of the workspace. Its slices and maps are shared
// with other snapshots and must not be modified.
type Snapshot struct {
	Version int64
	Steps   []domain.Step
	Tree    *domain.Tree
	Mount   domain.MountDescriptor
}

// Workspace is the observable pair of step list and file tree.
type Workspace struct {
	engine  *forge.Engine
	sandbox ports.Sandbox
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	project *domain.Project
	current Snapshot
	subs    map[int]chan Snapshot
	nextSub int
	closed  bool
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithEngine sets the engine used to parse and materialize.
func WithEngine(engine *forge.Engine) Option {
	return func(w *Workspace) {
		w.engine = engine
	}
}

// WithSandbox publishes every new mount descriptor to sb. The workspace owns sb
// and closes it on Close.
func WithSandbox(sb ports.Sandbox) Option {
	return func(w *Workspace) {
		w.sandbox = sb
	}
}

// WithLifecycleHooks registers hooks; the workspace fires OnMounted.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Workspace) {
		w.hooks = hooks
	}
}

// WithLogger configures a logger for the workspace.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// New creates an empty workspace.
func New(id string, opts ...Option) *Workspace {
	w := &Workspace{
		project: domain.NewProject(id, ""),
		subs:    make(map[int]chan Snapshot),
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.engine == nil {
		w.engine = forge.New(forge.WithLogger(w.logger))
	}
	w.current = Snapshot{
		Steps: w.project.Steps,
		Tree:  w.project.Tree,
		Mount: runtime.CompileMount(w.project.Tree),
	}
	return w
}

// Restore creates a workspace from a stored project and brings it up to date:
// pending steps are materialized and the tree is published to the sandbox.
func Restore(ctx context.Context, project *domain.Project, opts ...Option) (*Workspace, error) {
	if project == nil {
		return nil, fmt.Errorf("restore: nil project")
	}
	w := New(project.ID, opts...)

	w.mu.Lock()
	defer w.mu.Unlock()

	restored := project.Snapshot()
	next, _ := w.engine.Reapply(ctx, restored)
	w.project = next
	w.current = Snapshot{
		Steps: next.Steps,
		Tree:  next.Tree,
		Mount: runtime.CompileMount(next.Tree),
	}
	if err := w.publish(ctx, w.current.Mount); err != nil {
		return w, err
	}
	return w, nil
}

// Project exports the workspace state for persistence.
func (w *Workspace) Project() *domain.Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.project.Snapshot()
}

// Snapshot returns the latest state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Ingest parses one generator response and folds its steps in.
func (w *Workspace) Ingest(ctx context.Context, text string) (runtime.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return runtime.Result{}, ErrClosed
	}
	next, res := w.engine.Ingest(ctx, w.project, text)
	return res, w.commit(ctx, next, res.Changed || len(next.Steps) != len(w.project.Steps))
}

// Append adds already parsed steps and materializes them.
func (w *Workspace) Append(ctx context.Context, steps ...domain.Step) (runtime.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return runtime.Result{}, ErrClosed
	}
	appended := w.project.Snapshot()
	appended.Steps = append(appended.Steps, steps...)
	appended.UpdatedAt = w.now()
	next, res := w.engine.Reapply(ctx, appended)
	return res, w.commit(ctx, next, res.Changed || len(steps) > 0)
}

// Complete marks the step at index completed, e.g. once a shell command ran.
func (w *Workspace) Complete(ctx context.Context, index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if index < 0 || index >= len(w.project.Steps) {
		return fmt.Errorf("%w: %d of %d", domain.ErrStepIndex, index, len(w.project.Steps))
	}
	if w.project.Steps[index].Status == domain.StatusCompleted {
		return nil
	}
	next := w.project.Snapshot()
	next.Steps[index].Status = domain.StatusCompleted
	next.UpdatedAt = w.now()
	return w.commit(ctx, next, true)
}

// Subscribe returns a channel receiving a snapshot after every change. A slow
// subscriber only ever sees the most recent snapshot it has not received yet.
// The returned function unsubscribes and closes the channel.
func (w *Workspace) Subscribe() (<-chan Snapshot, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if w.closed {
		close(ch)
		return ch, func() {}
	}
	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if sub, ok := w.subs[id]; ok {
				delete(w.subs, id)
				close(sub)
			}
		})
	}
}

// Close ends all subscriptions and closes the sandbox.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	for id, ch := range w.subs {
		close(ch)
		delete(w.subs, id)
	}
	if w.sandbox != nil {
		return w.sandbox.Close()
	}
	return nil
}

// commit installs next as the current project and, when the steps or the tree
// changed, publishes a new snapshot. Must be called with mu held.
func (w *Workspace) commit(ctx context.Context, next *domain.Project, changed bool) error {
	prevTree := w.project.Tree
	w.project = next
	if !changed {
		return nil
	}

	snap := Snapshot{
		Version: w.current.Version + 1,
		Steps:   next.Steps,
		Tree:    next.Tree,
		Mount:   w.current.Mount,
	}

	var err error
	if next.Tree != prevTree {
		snap.Mount = runtime.CompileMount(next.Tree)
		err = w.publish(ctx, snap.Mount)
	}

	w.current = snap
	w.broadcast(snap)
	return err
}

func (w *Workspace) publish(ctx context.Context, mount domain.MountDescriptor) error {
	if w.sandbox == nil {
		return nil
	}
	err := w.sandbox.Mount(ctx, mount)
	if w.hooks.OnMounted != nil {
		w.hooks.OnMounted(ctx, &domain.MountEvent{
			EventBase: domain.EventBase{Timestamp: w.now(), Type: domain.EventMounted, ProjectID: w.project.ID},
			Entries:   runtime.CountEntries(mount),
			Err:       err,
		})
	}
	if err != nil {
		w.logger.Error("sandbox mount failed", "project_id", w.project.ID, "error", err)
		return fmt.Errorf("failed to mount project: %w", err)
	}
	return nil
}

func (w *Workspace) broadcast(snap Snapshot) {
	for _, ch := range w.subs {
		select {
		case ch <- snap:
		default:
			// Replace the unread snapshot with the newer one.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
