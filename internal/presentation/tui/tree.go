package tui

import (
	"strings"

	"github.com/aretw0/forge/pkg/domain"
	"github.com/muesli/termenv"
)

// FormatTree renders a file-explorer listing of the tree.
// Folders sort as they were created and carry a trailing slash.
func FormatTree(tree *domain.Tree, p termenv.Profile) string {
	var sb strings.Builder
	if tree == nil || len(tree.Items) == 0 {
		sb.WriteString("(empty)\n")
		return sb.String()
	}
	formatItems(&sb, tree.Items, "", p)
	return sb.String()
}

func formatItems(sb *strings.Builder, items []*domain.FileItem, prefix string, p termenv.Profile) {
	for i, it := range items {
		last := i == len(items)-1
		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}

		sb.WriteString(prefix)
		sb.WriteString(branch)
		if it.IsFolder() {
			sb.WriteString(p.String(it.Name + "/").Foreground(p.Color("#60a5fa")).Bold().String())
			sb.WriteString("\n")
			formatItems(sb, it.Children, prefix+indent, p)
			continue
		}
		sb.WriteString(it.Name)
		sb.WriteString("\n")
	}
}
