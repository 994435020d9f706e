package domain

import "time"

// Project is the persisted snapshot of one generation session.
type Project struct {
	ID     string `json:"id" yaml:"id"`
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty"`

	// Steps accumulate across generator responses in arrival order.
	Steps []Step `json:"steps" yaml:"steps"`
	Tree  *Tree  `json:"tree" yaml:"tree"`

	// Responses counts the generator responses ingested so far.
	Responses int       `json:"responses" yaml:"responses"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// Sealed carries the encrypted project when an encrypting store wraps the backend.
	Sealed string `json:"sealed,omitempty" yaml:"sealed,omitempty"`
}

// NewProject creates an empty project.
func NewProject(id, prompt string) *Project {
	return &Project{
		ID:     id,
		Prompt: prompt,
		Steps:  []Step{},
		Tree:   NewTree(),
	}
}

// Snapshot returns a copy whose step slice can be modified without touching p.
// The tree is shared: trees are never edited in place.
func (p *Project) Snapshot() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Steps = append([]Step(nil), p.Steps...)
	if cp.Tree == nil {
		cp.Tree = NewTree()
	}
	return &cp
}

// PendingCount returns how many steps are still pending.
func (p *Project) PendingCount() int {
	n := 0
	for _, s := range p.Steps {
		if s.IsPending() {
			n++
		}
	}
	return n
}
