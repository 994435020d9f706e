package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/forge/internal/presentation/tui"
	"github.com/aretw0/forge/internal/runtime"
	httpAdapter "github.com/aretw0/forge/pkg/adapters/http"
	"github.com/aretw0/forge/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Output formats understood by commands that print data.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// renderProject prints the step checklist followed by the file tree.
func renderProject(w io.Writer, project *domain.Project) error {
	if err := renderMarkdown(w, tui.StepsMarkdown(httpAdapter.ProjectTitle(project), project.Steps)); err != nil {
		return err
	}
	fmt.Fprintln(w)
	_, err := fmt.Fprint(w, tui.FormatTree(project.Tree, tui.Profile(w)))
	return err
}

func renderStepList(w io.Writer, steps []domain.Step) error {
	return renderMarkdown(w, tui.StepsMarkdown("", steps))
}

// renderMarkdown goes through glamour on terminals and prints raw markdown otherwise.
func renderMarkdown(w io.Writer, md string) error {
	if tui.IsInteractive(w) {
		if rendered, err := tui.NewRenderer()(md); err == nil {
			md = rendered
		}
	}
	_, err := fmt.Fprint(w, md)
	return err
}

// renderSkipped reports CreateFile steps the materializer could not apply.
func renderSkipped(w io.Writer, res runtime.Result) {
	for _, d := range res.Skipped {
		printSystemMessage(w, "Skipped %v", d)
	}
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
