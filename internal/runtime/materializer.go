package runtime

import (
	"fmt"

	"github.com/aretw0/forge/pkg/domain"
)

// Diagnostic explains why a CreateFile step was consumed without touching the tree.
type Diagnostic struct {
	StepIndex int
	StepID    int
	Path      string
	Err       error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("step %d (%q): %v", d.StepIndex, d.Path, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Write records one CreateFile step folded into the tree.
type Write struct {
	StepIndex int `json:"step_index"`
	// Path is the normalized node path, e.g. "/src/index.ts".
	Path      string `json:"path"`
	Overwrite bool   `json:"overwrite"`
	// Unchanged is set when the file already held the same content.
	Unchanged bool `json:"unchanged"`
	Bytes     int  `json:"bytes"`
}

// Result is the outcome of one materialization pass.
type Result struct {
	Tree    *domain.Tree
	Steps   []domain.Step
	Applied []Write
	Skipped []Diagnostic
	// Changed is false when Tree and Steps are the values passed in.
	Changed bool
}

// Materializer folds pending CreateFile steps into a tree.
type Materializer struct {
	policy CompletionPolicy
}

// MaterializerOption configures a Materializer.
type MaterializerOption func(*Materializer)

// WithCompletionPolicy selects how step statuses move after a pass.
func WithCompletionPolicy(p CompletionPolicy) MaterializerOption {
	return func(m *Materializer) {
		if p != "" {
			m.policy = p
		}
	}
}

// NewMaterializer creates a materializer using PolicyPerStep unless configured otherwise.
func NewMaterializer(opts ...MaterializerOption) *Materializer {
	m := &Materializer{policy: PolicyPerStep}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the configured completion policy.
func (m *Materializer) Policy() CompletionPolicy {
	return m.policy
}

// Materialize applies steps with the default materializer.
func Materialize(tree *domain.Tree, steps []domain.Step) Result {
	return NewMaterializer().Apply(tree, steps)
}

// Apply folds every pending CreateFile step into tree, in step order, and settles
// step statuses according to the policy. Neither tree nor steps is modified.
// A nil tree is treated as empty.
func (m *Materializer) Apply(tree *domain.Tree, steps []domain.Step) Result {
	if tree == nil {
		tree = domain.NewTree()
	}
	if !m.policy.hasWork(steps) {
		return Result{Tree: tree, Steps: steps}
	}

	editor := newTreeEditor(tree)
	consumed := make(map[int]bool)
	var applied []Write
	var skipped []Diagnostic

	for i, step := range steps {
		if !step.IsPending() || !step.AffectsTree() {
			continue
		}
		consumed[i] = true

		segments := domain.SplitPath(step.Path)
		if err := domain.CheckSegments(segments); err != nil {
			skipped = append(skipped, Diagnostic{StepIndex: i, StepID: step.ID, Path: step.Path, Err: err})
			continue
		}

		outcome, err := editor.probe(segments, step.Code)
		if err != nil {
			skipped = append(skipped, Diagnostic{StepIndex: i, StepID: step.ID, Path: domain.JoinPath(segments), Err: err})
			continue
		}
		if outcome != outcomeUnchanged {
			editor.write(segments, step.Code)
		}
		applied = append(applied, Write{
			StepIndex: i,
			Path:      domain.JoinPath(segments),
			Overwrite: outcome != outcomeCreated,
			Unchanged: outcome == outcomeUnchanged,
			Bytes:     len(step.Code),
		})
	}

	settled, statusChanged := m.policy.settle(steps, consumed)
	return Result{
		Tree:    editor.tree,
		Steps:   settled,
		Applied: applied,
		Skipped: skipped,
		Changed: statusChanged || editor.tree != tree,
	}
}
