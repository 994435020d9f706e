package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/forge/pkg/domain"
)

// TreeOverlay contains dynamic data to highlight on the diagram.
type TreeOverlay struct {
	// Changed lists file paths touched by the last ingest (see domain.ProjectDiff.Files).
	Changed []string
}

// GenerateMermaid produces a Mermaid flowchart of a project's file tree.
// It applies semantic styling:
// - Project root: ((Circle))
// - Folder: ([Stadium])
// - File: [Rectangle]
// Node IDs are assigned in walk order so paths never need escaping.
func GenerateMermaid(title string, tree *domain.Tree, overlay *TreeOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	if title == "" {
		title = "project"
	}
	sb.WriteString(fmt.Sprintf("    root((\"%s\"))\n", escapeLabel(title)))

	ids := make(map[string]string)
	if tree != nil {
		writeItems(&sb, "root", tree.Items, ids)
	}

	if overlay != nil && len(overlay.Changed) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef changed fill:#fff3e0,stroke:#e65100,stroke-width:2px,color:#000;\n")

		seen := make(map[string]bool)
		for _, p := range overlay.Changed {
			id, ok := ids[domain.JoinPath(domain.SplitPath(p))]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			sb.WriteString(fmt.Sprintf("    class %s changed;\n", id))
		}
	}

	return sb.String()
}

func writeItems(sb *strings.Builder, parent string, items []*domain.FileItem, ids map[string]string) {
	for _, it := range items {
		id := fmt.Sprintf("n%d", len(ids))
		ids[it.Path] = id

		opener, closer := "[", "]"
		label := it.Name
		if it.IsFolder() {
			opener, closer = "([", "])"
			label += "/"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, escapeLabel(label), closer))
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", parent, id))

		if it.IsFolder() {
			writeItems(sb, id, it.Children, ids)
		}
	}
}

// escapeLabel keeps labels inside their double quotes.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
