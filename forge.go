package forge

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/forge/internal/compiler"
	"github.com/aretw0/forge/internal/logging"
	"github.com/aretw0/forge/internal/runtime"
	"github.com/aretw0/forge/pkg/domain"
)

// Engine is the high-level entry point for the forge library.
// It wires the parser, the materializer and the mount compiler and reports
// progress through lifecycle hooks. An Engine holds no session state and is
// safe for concurrent use.
type Engine struct {
	parser       *compiler.Parser
	materializer *runtime.Materializer
	parserOpts   []compiler.ParserOption
	policy       runtime.CompletionPolicy
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	now          func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCompletionPolicy selects how step statuses move after a materialization pass.
func WithCompletionPolicy(p runtime.CompletionPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithTags overrides the wrapper and action tag names the parser looks for.
func WithTags(wrapper, action string) Option {
	return func(e *Engine) {
		e.parserOpts = append(e.parserOpts, compiler.WithTags(wrapper, action))
	}
}

// WithClock replaces the time source used to stamp projects.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New initializes a new Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{policy: runtime.PolicyPerStep}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.now == nil {
		eng.now = time.Now
	}

	eng.parser = compiler.NewParser(eng.parserOpts...)
	eng.materializer = runtime.NewMaterializer(runtime.WithCompletionPolicy(eng.policy))
	return eng
}

// Policy returns the completion policy the engine materializes with.
func (e *Engine) Policy() runtime.CompletionPolicy {
	return e.materializer.Policy()
}

// Parse converts generator text into steps.
func (e *Engine) Parse(ctx context.Context, text string) compiler.Result {
	return e.parse(ctx, "", text)
}

// Apply folds the pending CreateFile steps into tree.
func (e *Engine) Apply(ctx context.Context, tree *domain.Tree, steps []domain.Step) runtime.Result {
	return e.apply(ctx, "", tree, steps)
}

// Mount compiles tree into a sandbox mount descriptor.
func (e *Engine) Mount(tree *domain.Tree) domain.MountDescriptor {
	return runtime.CompileMount(tree)
}

// Ingest parses one generator response, appends its steps to the project in
// arrival order and materializes them. The given project is left untouched;
// a nil project starts an anonymous one.
func (e *Engine) Ingest(ctx context.Context, project *domain.Project, text string) (*domain.Project, runtime.Result) {
	if project == nil {
		project = domain.NewProject("", "")
	}
	next := project.Snapshot()
	parsed := e.parse(ctx, next.ID, text)
	next.Steps = append(next.Steps, parsed.Steps...)

	res := e.apply(ctx, next.ID, next.Tree, next.Steps)
	next.Steps = res.Steps
	next.Tree = res.Tree
	next.Responses++
	next.UpdatedAt = e.now()
	return next, res
}

// Reapply materializes a project's current steps, e.g. after a restore.
func (e *Engine) Reapply(ctx context.Context, project *domain.Project) (*domain.Project, runtime.Result) {
	next := project.Snapshot()
	res := e.apply(ctx, next.ID, next.Tree, next.Steps)
	if !res.Changed {
		return project, res
	}
	next.Steps = res.Steps
	next.Tree = res.Tree
	next.UpdatedAt = e.now()
	return next, res
}

func (e *Engine) parse(ctx context.Context, projectID, text string) compiler.Result {
	res := e.parser.Parse(text)

	e.logger.Debug("parsed generator text",
		"project_id", projectID,
		"steps", len(res.Steps),
		"mode", string(res.Mode),
	)
	if e.hooks.OnStepsParsed != nil {
		e.hooks.OnStepsParsed(ctx, &domain.ParseEvent{
			EventBase: e.event(domain.EventStepsParsed, projectID),
			Steps:     len(res.Steps),
			Fallback:  res.Fallback(),
		})
	}
	return res
}

func (e *Engine) apply(ctx context.Context, projectID string, tree *domain.Tree, steps []domain.Step) runtime.Result {
	res := e.materializer.Apply(tree, steps)

	for _, w := range res.Applied {
		if e.hooks.OnFileWritten != nil {
			e.hooks.OnFileWritten(ctx, &domain.FileEvent{
				EventBase: e.event(domain.EventFileWritten, projectID),
				Path:      w.Path,
				Overwrite: w.Overwrite,
				Bytes:     w.Bytes,
			})
		}
	}
	for _, d := range res.Skipped {
		e.logger.Warn("skipped file step",
			"project_id", projectID,
			"step", d.StepIndex,
			"path", d.Path,
			"error", d.Err,
		)
		if e.hooks.OnStepSkipped != nil {
			e.hooks.OnStepSkipped(ctx, &domain.SkipEvent{
				EventBase: e.event(domain.EventStepSkipped, projectID),
				StepIndex: d.StepIndex,
				Path:      d.Path,
				Reason:    d.Err.Error(),
			})
		}
	}
	if res.Changed {
		e.logger.Debug("materialized steps",
			"project_id", projectID,
			"written", len(res.Applied),
			"skipped", len(res.Skipped),
			"nodes", res.Tree.Len(),
		)
	}
	return res
}

func (e *Engine) event(t domain.EventType, projectID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, ProjectID: projectID}
}
