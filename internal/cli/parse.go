package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/forge/pkg/domain"
)

// ParseOutput is what the parse command prints.
type ParseOutput struct {
	Mode  string        `json:"mode" yaml:"mode"`
	Steps []domain.Step `json:"steps" yaml:"steps"`
}

// Parse prints the steps found in one generator response without touching
// any session or sandbox.
func Parse(ctx context.Context, app *App, input string, format string, stdin io.Reader, stdout io.Writer) error {
	if stdout == nil {
		stdout = os.Stdout
	}
	var inputs []string
	if input != "" {
		inputs = []string{input}
	}
	texts, err := readInputs(inputs, stdin)
	if err != nil {
		return err
	}

	res := app.Engine.Parse(ctx, texts[0])
	steps := res.Steps
	if steps == nil {
		steps = []domain.Step{}
	}
	if format == "" {
		format = FormatJSON
	}
	if format == FormatText {
		return renderStepList(stdout, steps)
	}
	return encode(stdout, format, ParseOutput{Mode: string(res.Mode), Steps: steps})
}
