package domain

import "strconv"

// ProjectDiff represents the changes between two project snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type ProjectDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Appended contains steps added at the end of the list.
	Appended []Step `json:"appended,omitempty"`

	// Statuses maps step index (as a decimal string) to its new status.
	Statuses map[string]StepStatus `json:"statuses,omitempty"`

	// Files lists file paths that were created or whose content changed.
	Files []string `json:"files,omitempty"`
}

// Diff calculates the difference between oldProject and newProject.
// If oldProject is nil, it returns a diff representing the entire newProject (initial load).
func Diff(oldProject, newProject *Project) *ProjectDiff {
	if newProject == nil {
		return nil
	}

	diff := &ProjectDiff{
		SessionID: newProject.ID,
	}

	var oldSteps []Step
	var oldTree *Tree
	if oldProject != nil {
		oldSteps = oldProject.Steps
		oldTree = oldProject.Tree
	}

	diff.Appended, diff.Statuses = diffSteps(oldSteps, newProject.Steps)
	diff.Files = diffTree(oldTree, newProject.Tree)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffSteps assumes append-only step lists.
func diffSteps(old, new []Step) ([]Step, map[string]StepStatus) {
	statuses := make(map[string]StepStatus)
	shared := min(len(old), len(new))
	for i := 0; i < shared; i++ {
		if old[i].Status != new[i].Status {
			statuses[strconv.Itoa(i)] = new[i].Status
		}
	}

	var appended []Step
	if len(new) > len(old) {
		appended = append([]Step(nil), new[len(old):]...)
	}

	if len(statuses) == 0 {
		statuses = nil
	}
	return appended, statuses
}

func diffTree(old, new *Tree) []string {
	if new == nil || old == new {
		return nil
	}
	var oldItems []*FileItem
	if old != nil {
		oldItems = old.Items
	}
	var changed []string
	diffItems(oldItems, new.Items, &changed)
	return changed
}

func diffItems(old, new []*FileItem, changed *[]string) {
	byName := make(map[string]*FileItem, len(old))
	for _, it := range old {
		byName[it.Name] = it
	}
	for _, it := range new {
		prev := byName[it.Name]
		if prev == it {
			// Shared subtree: untouched by the materializer.
			continue
		}
		if it.IsFolder() {
			var prevChildren []*FileItem
			if prev != nil && prev.IsFolder() {
				prevChildren = prev.Children
			}
			diffItems(prevChildren, it.Children, changed)
			continue
		}
		if prev == nil || prev.IsFolder() || prev.Content != it.Content {
			*changed = append(*changed, it.Path)
		}
	}
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ProjectDiff) IsEmpty() bool {
	return len(d.Appended) == 0 &&
		len(d.Statuses) == 0 &&
		len(d.Files) == 0
}
