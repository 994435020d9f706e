package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/forge/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepsParsed: func(ctx context.Context, e *domain.ParseEvent) {
			logger.Debug("Steps Parsed", "project_id", e.ProjectID, "steps", e.Steps, "fallback", e.Fallback)
		},
		OnFileWritten: func(ctx context.Context, e *domain.FileEvent) {
			logger.Debug("File Written", "project_id", e.ProjectID, "path", e.Path, "overwrite", e.Overwrite, "bytes", e.Bytes)
		},
		OnStepSkipped: func(ctx context.Context, e *domain.SkipEvent) {
			logger.Debug("Step Skipped", "project_id", e.ProjectID, "step", e.StepIndex, "path", e.Path, "reason", e.Reason)
		},
		OnMounted: func(ctx context.Context, e *domain.MountEvent) {
			if e.Err != nil {
				logger.Debug("Mount Failed", "project_id", e.ProjectID, "entries", e.Entries, "err", e.Err)
			} else {
				logger.Debug("Mounted", "project_id", e.ProjectID, "entries", e.Entries)
			}
		},
	}
}

// chainHooks calls a's hooks before b's.
func chainHooks(a, b domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepsParsed: chain(a.OnStepsParsed, b.OnStepsParsed),
		OnFileWritten: chain(a.OnFileWritten, b.OnFileWritten),
		OnStepSkipped: chain(a.OnStepSkipped, b.OnStepSkipped),
		OnMounted:     chain(a.OnMounted, b.OnMounted),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
