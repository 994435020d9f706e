package runtime

import (
	"github.com/aretw0/forge/pkg/domain"
)

// treeEditor applies writes to a tree copy-on-write. The first write that
// actually changes something clones the root collection; every folder on a
// written path is cloned once and then edited freely for the rest of the pass.
type treeEditor struct {
	tree  *domain.Tree
	owned map[*domain.FileItem]bool
	// forked is set once tree no longer points at the caller's value.
	forked bool
}

func newTreeEditor(tree *domain.Tree) *treeEditor {
	return &treeEditor{tree: tree, owned: make(map[*domain.FileItem]bool)}
}

type writeOutcome int

const (
	outcomeCreated writeOutcome = iota
	outcomeOverwritten
	outcomeUnchanged
)

// probe walks segments read-only and reports what a write would do.
func (e *treeEditor) probe(segments []string, content string) (writeOutcome, error) {
	level := e.tree.Items
	for i, seg := range segments {
		node := findChild(level, seg)
		last := i == len(segments)-1
		switch {
		case node == nil:
			return outcomeCreated, nil
		case last && node.IsFolder():
			return 0, domain.ErrPathCollision
		case last && node.Content == content:
			return outcomeUnchanged, nil
		case last:
			return outcomeOverwritten, nil
		case !node.IsFolder():
			return 0, domain.ErrPathCollision
		}
		level = node.Children
	}
	return outcomeUnchanged, nil
}

// write creates or overwrites the file at segments. The path must have been probed.
func (e *treeEditor) write(segments []string, content string) {
	if !e.forked {
		e.tree = &domain.Tree{Items: append([]*domain.FileItem(nil), e.tree.Items...)}
		e.forked = true
	}

	level := &e.tree.Items
	for i, seg := range segments[:len(segments)-1] {
		idx := indexOfChild(*level, seg)
		if idx < 0 {
			folder := &domain.FileItem{
				Name:     seg,
				Path:     domain.JoinPath(segments[:i+1]),
				Type:     domain.FileTypeFolder,
				Children: []*domain.FileItem{},
			}
			e.owned[folder] = true
			*level = append(*level, folder)
			level = &folder.Children
			continue
		}
		folder := e.own(level, idx)
		level = &folder.Children
	}

	name := segments[len(segments)-1]
	idx := indexOfChild(*level, name)
	if idx < 0 {
		file := &domain.FileItem{
			Name:    name,
			Path:    domain.JoinPath(segments),
			Type:    domain.FileTypeFile,
			Content: content,
		}
		e.owned[file] = true
		*level = append(*level, file)
		return
	}
	e.own(level, idx).Content = content
}

// own replaces (*level)[idx] with a private clone unless this pass already made one.
func (e *treeEditor) own(level *[]*domain.FileItem, idx int) *domain.FileItem {
	node := (*level)[idx]
	if e.owned[node] {
		return node
	}
	cp := *node
	if node.IsFolder() {
		cp.Children = append([]*domain.FileItem(nil), node.Children...)
	}
	e.owned[&cp] = true
	(*level)[idx] = &cp
	return &cp
}

func findChild(items []*domain.FileItem, name string) *domain.FileItem {
	if idx := indexOfChild(items, name); idx >= 0 {
		return items[idx]
	}
	return nil
}

func indexOfChild(items []*domain.FileItem, name string) int {
	for i, it := range items {
		if it.Name == name {
			return i
		}
	}
	return -1
}
