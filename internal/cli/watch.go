package cli

import (
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/forge/pkg/adapters/sandbox"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/ports"
	"github.com/aretw0/forge/pkg/workspace"
	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce collapses the burst of events editors emit for one save.
const DefaultWatchDebounce = 100 * time.Millisecond

// WatchOptions contains the configuration for the watch command.
type WatchOptions struct {
	// Input is the file the generator response is written to.
	Input string
	// SessionID persists the workspace after every change.
	SessionID string
	Debounce  time.Duration
	// Sandbox overrides the sandbox dir from the configuration.
	Sandbox ports.Sandbox

	Stdout io.Writer
}

// Watch ingests Input and then re-ingests its content as a new generator response
// every time the file changes, keeping the sandbox in sync. It returns when ctx is done.
func Watch(ctx context.Context, app *App, opts WatchOptions) error {
	if opts.Input == "" {
		return errors.New("input file is required")
	}
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	input, err := filepath.Abs(opts.Input)
	if err != nil {
		return fmt.Errorf("failed to resolve input: %w", err)
	}

	// Editors often replace the file on save, so the parent directory is watched.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.Input, err)
	}

	sb := opts.Sandbox
	if sb == nil {
		dir := app.Config.Sandbox.Dir
		sb = sandbox.NewLazy(func(ctx context.Context) (ports.Sandbox, error) {
			return sandbox.NewDir(dir, sandbox.WithLogger(app.Logger)), nil
		})
	}

	project := domain.NewProject(opts.SessionID, "")
	if opts.SessionID != "" {
		loaded, err := app.Sessions.LoadOrCreate(ctx, opts.SessionID, "")
		if err != nil {
			return err
		}
		project = loaded
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

	app.Logger.Info("Starting Watcher", "path", input, "session_id", opts.SessionID)
	printSystemMessage(out, "Watching '%s'.", opts.Input)

	var last [md5.Size]byte
	ingest := func() {
		data, err := os.ReadFile(input)
		if err != nil {
			app.Logger.Debug("Watched file unreadable", "path", input, "err", err)
			return
		}
		// A truncated file is a save in progress; identical bytes are not a new response.
		if len(bytes.TrimSpace(data)) == 0 {
			return
		}
		sum := md5.Sum(data)
		if sum == last {
			return
		}
		last = sum
		if err := app.reload(ctx, ws, opts.SessionID, string(data), out); err != nil {
			app.Logger.Error("Reload failed", "path", input, "err", err)
		}
	}
	ingest()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			printSystemMessage(out, "Watcher stopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != input {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			ingest()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			app.Logger.Warn("Watcher error", "path", input, "err", err)
		}
	}
}

func (a *App) reload(ctx context.Context, ws *workspace.Workspace, sessionID, text string, out io.Writer) error {
	res, err := ws.Ingest(ctx, text)
	if err != nil {
		return err
	}
	renderSkipped(out, res)

	project := ws.Project()
	if sessionID != "" {
		if err := a.Sessions.Save(ctx, sessionID, project); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
	}

	printSystemMessage(out, "Change detected, %d files written.", len(res.Applied))
	fmt.Fprint(out, "\n")
	return renderProject(out, project)
}
