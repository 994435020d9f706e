package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/forge/pkg/domain"
)

// CompletionPolicy decides which steps a materialization pass marks completed.
type CompletionPolicy string

const (
	// PolicyPerStep completes each consumed CreateFile step and pending CreateFolder
	// steps. Shell, edit and delete steps wait for an explicit completion.
	PolicyPerStep CompletionPolicy = "per-step"
	// PolicyLegacy completes every step as soon as one pending CreateFile is processed.
	PolicyLegacy CompletionPolicy = "legacy"
)

// ParsePolicy maps a configuration value to a policy. Empty selects PolicyPerStep.
func ParsePolicy(s string) (CompletionPolicy, error) {
	switch CompletionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPerStep:
		return PolicyPerStep, nil
	case PolicyLegacy:
		return PolicyLegacy, nil
	default:
		return "", fmt.Errorf("unknown completion policy %q", s)
	}
}

// hasWork reports whether a pass over steps can change anything.
func (p CompletionPolicy) hasWork(steps []domain.Step) bool {
	for _, s := range steps {
		if !s.IsPending() {
			continue
		}
		if s.Type == domain.StepCreateFile {
			return true
		}
		if p != PolicyLegacy && s.Type == domain.StepCreateFolder {
			return true
		}
	}
	return false
}

// settle returns the post-pass statuses. consumed marks the CreateFile steps the
// pass processed, whether written or skipped. The input slice is left untouched.
func (p CompletionPolicy) settle(steps []domain.Step, consumed map[int]bool) ([]domain.Step, bool) {
	out := make([]domain.Step, len(steps))
	copy(out, steps)

	changed := false
	complete := func(i int) {
		if out[i].Status != domain.StatusCompleted {
			out[i].Status = domain.StatusCompleted
			changed = true
		}
	}

	switch p {
	case PolicyLegacy:
		if len(consumed) == 0 {
			return steps, false
		}
		for i := range out {
			complete(i)
		}
	default:
		for i, s := range out {
			if consumed[i] || (s.Type == domain.StepCreateFolder && s.IsPending()) {
				complete(i)
			}
		}
	}

	if !changed {
		return steps, false
	}
	return out, true
}
