package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/forge/pkg/adapters/sandbox"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/ports"
	"github.com/aretw0/forge/pkg/workspace"
)

// BuildOptions contains the configuration for the build command.
type BuildOptions struct {
	// Inputs are files holding generator responses, applied in order.
	// An empty list or "-" reads one response from Stdin.
	Inputs []string
	// SessionID folds the responses into a stored session instead of a
	// throwaway project.
	SessionID string
	// DryRun records the mount descriptor instead of writing the sandbox dir.
	DryRun bool
	// Format selects text output or the project as json/yaml.
	Format string

	Stdin  io.Reader
	Stdout io.Writer
}

// Build ingests generator responses, mounts the resulting tree into the
// sandbox dir and prints the steps and the tree.
func Build(ctx context.Context, app *App, opts BuildOptions) error {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	texts, err := readInputs(opts.Inputs, opts.Stdin)
	if err != nil {
		return err
	}

	project, err := app.ingestAll(ctx, opts.SessionID, texts, out)
	if err != nil {
		return err
	}

	var sb ports.Sandbox
	var recorder *sandbox.Recorder
	if opts.DryRun {
		recorder = sandbox.NewRecorder()
		sb = recorder
	} else {
		dir := app.Config.Sandbox.Dir
		sb = sandbox.NewLazy(func(ctx context.Context) (ports.Sandbox, error) {
			return sandbox.NewDir(dir, sandbox.WithLogger(app.Logger)), nil
		})
	}

	ws, err := workspace.Restore(ctx, project,
		workspace.WithEngine(app.Engine),
		workspace.WithSandbox(sb),
		workspace.WithLifecycleHooks(app.Hooks),
		workspace.WithLogger(app.Logger),
	)
	if err != nil {
		return err
	}
	defer ws.Close()
	project = ws.Project()

	switch opts.Format {
	case "", FormatText:
	default:
		return encode(out, opts.Format, project)
	}

	if err := renderProject(out, project); err != nil {
		return err
	}
	if recorder != nil {
		printSystemMessage(out, "Dry run: %d top-level entries not written.", len(recorder.Last()))
	} else {
		printSystemMessage(out, "Mounted into '%s'.", app.Config.Sandbox.Dir)
	}
	return nil
}

// ingestAll folds texts into the session, or into an anonymous project when
// sessionID is empty.
func (a *App) ingestAll(ctx context.Context, sessionID string, texts []string, out io.Writer) (*domain.Project, error) {
	if sessionID == "" {
		project := domain.NewProject("", "")
		for _, text := range texts {
			next, res := a.Engine.Ingest(ctx, project, text)
			renderSkipped(out, res)
			project = next
		}
		return project, nil
	}

	var project *domain.Project
	for i, text := range texts {
		next, res, err := a.Sessions.Ingest(ctx, sessionID, text)
		if err != nil {
			return nil, fmt.Errorf("response %d: %w", i+1, err)
		}
		renderSkipped(out, res)
		project = next
	}
	if project == nil {
		return a.Sessions.LoadOrCreate(ctx, sessionID, "")
	}
	return project, nil
}

// readInputs returns one text per input. "-" and an empty list read stdin.
func readInputs(inputs []string, stdin io.Reader) ([]string, error) {
	if stdin == nil {
		stdin = os.Stdin
	}
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	texts := make([]string, 0, len(inputs))
	usedStdin := false
	for _, in := range inputs {
		if in == "-" {
			if usedStdin {
				return nil, errors.New("stdin can only be read once")
			}
			usedStdin = true
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			texts = append(texts, string(data))
			continue
		}
		data, err := os.ReadFile(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		texts = append(texts, string(data))
	}
	return texts, nil
}
