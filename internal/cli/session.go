package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/forge/internal/presentation/graph"
	"github.com/aretw0/forge/internal/presentation/tui"
	httpAdapter "github.com/aretw0/forge/pkg/adapters/http"
)

// ListSessions prints the stored session IDs.
func ListSessions(ctx context.Context, app *App, w io.Writer) error {
	ids, err := app.Sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	fmt.Fprintln(w, "Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// ShowSession prints a stored project as text, JSON or YAML.
func ShowSession(ctx context.Context, app *App, sessionID, format string, w io.Writer) error {
	project, err := app.Sessions.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session '%s': %w", sessionID, err)
	}
	switch format {
	case "", FormatText:
		return renderProject(w, project)
	default:
		return encode(w, format, project)
	}
}

// RemoveSessions deletes every listed session and reports each outcome.
func RemoveSessions(ctx context.Context, app *App, ids []string, w io.Writer) error {
	var errs []error
	for _, id := range ids {
		if err := app.Sessions.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}

// ShowLog prints the archived generator responses of a session.
func ShowLog(ctx context.Context, app *App, sessionID string, w io.Writer) error {
	if app.Transcripts == nil {
		return errors.New("transcripts are not archived; set transcripts.dir")
	}
	transcripts, err := app.Transcripts.List(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to list transcripts: %w", err)
	}
	if len(transcripts) == 0 {
		fmt.Fprintln(w, "No responses recorded.")
		return nil
	}
	for _, t := range transcripts {
		fmt.Fprintf(w, "#%d  %s  %d steps  %d bytes\n",
			t.Seq, t.ReceivedAt.Format("2006-01-02 15:04:05"), t.Steps, len(t.Text))
	}
	return nil
}

// ShowTree prints a session's file tree, or its mount descriptor as JSON.
func ShowTree(ctx context.Context, app *App, sessionID string, mount bool, w io.Writer) error {
	project, err := app.Sessions.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session '%s': %w", sessionID, err)
	}
	if mount {
		return encode(w, FormatJSON, app.Engine.Mount(project.Tree))
	}
	_, err = fmt.Fprint(w, tui.FormatTree(project.Tree, tui.Profile(w)))
	return err
}

// ShowGraph prints a Mermaid flowchart of a session's file tree.
func ShowGraph(ctx context.Context, app *App, sessionID string, w io.Writer) error {
	project, err := app.Sessions.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session '%s': %w", sessionID, err)
	}
	_, err = fmt.Fprint(w, graph.GenerateMermaid(httpAdapter.ProjectTitle(project), project.Tree, nil))
	return err
}
