package domain

// FileType distinguishes leaves from containers in the file tree.
type FileType string

const (
	FileTypeFile   FileType = "file"
	FileTypeFolder FileType = "folder"
)

// FileItem is one file or folder of a generated project.
// Path is the sole addressing key: the parent's path, a slash and Name.
type FileItem struct {
	Name     string      `json:"name" yaml:"name"`
	Path     string      `json:"path" yaml:"path"`
	Type     FileType    `json:"type" yaml:"type"`
	Content  string      `json:"content,omitempty" yaml:"content,omitempty"`
	Children []*FileItem `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsFolder reports whether the item can hold children.
func (f *FileItem) IsFolder() bool {
	return f.Type == FileTypeFolder
}

// Tree holds the root collection of a project.
// A *Tree is treated as immutable once published: materialization builds a new
// Tree instead of editing one in place, so pointer equality means "unchanged".
type Tree struct {
	Items []*FileItem `json:"items" yaml:"items"`
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{Items: []*FileItem{}}
}

// Len returns the number of nodes in the tree, folders included.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return countItems(t.Items)
}

func countItems(items []*FileItem) int {
	n := 0
	for _, it := range items {
		n++
		if it.IsFolder() {
			n += countItems(it.Children)
		}
	}
	return n
}

// Walk visits every node depth-first in insertion order.
// Returning false from fn stops the walk.
func (t *Tree) Walk(fn func(item *FileItem) bool) {
	if t == nil {
		return
	}
	walkItems(t.Items, fn)
}

func walkItems(items []*FileItem, fn func(item *FileItem) bool) bool {
	for _, it := range items {
		if !fn(it) {
			return false
		}
		if it.IsFolder() && !walkItems(it.Children, fn) {
			return false
		}
	}
	return true
}

// Find returns the node addressed by a slash-delimited path, or nil.
// Leading and repeated slashes are ignored.
func (t *Tree) Find(path string) *FileItem {
	if t == nil {
		return nil
	}
	segments := SplitPath(path)
	if len(segments) == 0 {
		return nil
	}
	level := t.Items
	for i, seg := range segments {
		var next *FileItem
		for _, it := range level {
			if it.Name == seg {
				next = it
				break
			}
		}
		if next == nil {
			return nil
		}
		if i == len(segments)-1 {
			return next
		}
		if !next.IsFolder() {
			return nil
		}
		level = next.Children
	}
	return nil
}
