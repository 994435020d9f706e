package cli

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/forge/pkg/adapters/generator"
	"github.com/aretw0/forge/pkg/ports"
)

// GenerateOptions contains the configuration for the generate command.
type GenerateOptions struct {
	Prompt string
	// SessionID defaults to an ID derived from the prompt.
	SessionID string
	// Generator overrides the configured backend.
	Generator ports.Generator
	Format    string

	Stdout io.Writer
}

// Generate asks the backend for a new project and folds both responses of the
// bootstrap exchange into a session.
func Generate(ctx context.Context, app *App, opts GenerateOptions) error {
	if opts.Prompt == "" {
		return errors.New("prompt is required")
	}
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	if opts.SessionID == "" {
		hash := md5.Sum([]byte(opts.Prompt))
		opts.SessionID = fmt.Sprintf("gen-%x", hash[:4])
	}

	gen := opts.Generator
	if gen == nil {
		cfg := app.Config.Generator
		gen = generator.New(cfg.URL,
			generator.WithTimeout(cfg.Timeout),
			generator.WithLogger(app.Logger),
		)
	}

	app.Logger.Info("Requesting project", "session_id", opts.SessionID)
	texts, err := generator.Bootstrap(ctx, gen, opts.Prompt)
	if err != nil {
		return fmt.Errorf("generator failed: %w", err)
	}

	if _, err := app.Sessions.LoadOrCreate(ctx, opts.SessionID, opts.Prompt); err != nil {
		return err
	}
	project, err := app.ingestAll(ctx, opts.SessionID, texts, out)
	if err != nil {
		return err
	}

	switch opts.Format {
	case "", FormatText:
	default:
		return encode(out, opts.Format, project)
	}

	printSystemMessage(out, "Session '%s' holds %d steps.", opts.SessionID, len(project.Steps))
	return renderProject(out, project)
}
