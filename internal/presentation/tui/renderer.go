package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/forge/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// StepsMarkdown formats the build steps as a Markdown checklist.
// Shell commands and file paths are shown as code.
func StepsMarkdown(title string, steps []domain.Step) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", title)
	}
	if len(steps) == 0 {
		sb.WriteString("_No steps._\n")
		return sb.String()
	}

	for i, s := range steps {
		fmt.Fprintf(&sb, "%d. %s **%s**", i+1, statusMark(s.Status), s.Title)
		switch s.Type {
		case domain.StepCreateFile:
			fmt.Fprintf(&sb, " `%s`", s.Path)
		case domain.StepRunScript:
			if cmd := strings.TrimSpace(s.Code); cmd != "" && !strings.Contains(cmd, "\n") {
				fmt.Fprintf(&sb, " `%s`", cmd)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func statusMark(s domain.StepStatus) string {
	switch s {
	case domain.StatusCompleted:
		return "[x]"
	case domain.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}
