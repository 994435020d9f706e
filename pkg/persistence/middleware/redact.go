package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/ports"
)

// Mask replaces redacted file contents.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.ProjectStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks the contents of generated files whose path matches
// any pattern (e.g. `\.env$`) before they reach the backend. Both the tree and
// the CreateFile step payloads are masked; the caller's project is left intact.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.ProjectStore) ports.ProjectStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, sessionID string, project *domain.Project) error {
	cloned := project.Snapshot()
	for i, step := range cloned.Steps {
		if step.Type == domain.StepCreateFile && m.matches(domain.JoinPath(domain.SplitPath(step.Path))) {
			cloned.Steps[i].Code = Mask
		}
	}
	cloned.Tree = &domain.Tree{Items: m.maskItems(cloned.Tree.Items)}

	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Project, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactionMiddleware) matches(path string) bool {
	for _, p := range m.patterns {
		if p.MatchString(path) {
			return true
		}
	}
	return false
}

// maskItems copies the items; trees are shared and must not be edited in place.
func (m *redactionMiddleware) maskItems(items []*domain.FileItem) []*domain.FileItem {
	out := make([]*domain.FileItem, len(items))
	for i, it := range items {
		cp := *it
		if cp.IsFolder() {
			cp.Children = m.maskItems(it.Children)
		} else if m.matches(cp.Path) {
			cp.Content = Mask
		}
		out[i] = &cp
	}
	return out
}
