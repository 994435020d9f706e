package runtime

import (
	"github.com/aretw0/forge/pkg/domain"
)

// CompileMount converts a tree into the nested descriptor a sandbox mounts.
// The descriptor is rebuilt from scratch on every call.
func CompileMount(tree *domain.Tree) domain.MountDescriptor {
	if tree == nil {
		return domain.MountDescriptor{}
	}
	return compileItems(tree.Items)
}

func compileItems(items []*domain.FileItem) domain.MountDescriptor {
	out := make(domain.MountDescriptor, len(items))
	for _, it := range items {
		if it.IsFolder() {
			out[it.Name] = domain.MountEntry{Directory: compileItems(it.Children)}
			continue
		}
		out[it.Name] = domain.MountEntry{File: &domain.MountFile{Contents: it.Content}}
	}
	return out
}

// CountEntries returns the number of files and directories in a descriptor.
func CountEntries(d domain.MountDescriptor) int {
	n := 0
	for _, e := range d {
		n++
		if e.IsDir() {
			n += CountEntries(e.Directory)
		}
	}
	return n
}
