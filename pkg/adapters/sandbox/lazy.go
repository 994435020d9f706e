package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/ports"
)

// ErrClosed is returned when mounting into a sandbox that was closed.
var ErrClosed = errors.New("sandbox closed")

// BootFunc starts a sandbox instance.
type BootFunc func(ctx context.Context) (ports.Sandbox, error)

// Lazy owns one sandbox instance, started on the first Mount and reused afterwards.
// A failed boot is retried on the next Mount.
type Lazy struct {
	boot BootFunc

	mu     sync.Mutex
	inst   ports.Sandbox
	closed bool
}

// NewLazy wraps boot. Nothing is started until the first Mount.
func NewLazy(boot BootFunc) *Lazy {
	return &Lazy{boot: boot}
}

// Mount boots the sandbox if needed and mounts the descriptor into it.
func (l *Lazy) Mount(ctx context.Context, mount domain.MountDescriptor) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if l.inst == nil {
		inst, err := l.boot(ctx)
		if err != nil {
			return fmt.Errorf("failed to boot sandbox: %w", err)
		}
		l.inst = inst
	}
	return l.inst.Mount(ctx, mount)
}

// Booted reports whether an instance is running.
func (l *Lazy) Booted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inst != nil
}

// Close disposes the instance, if one was booted. Close is idempotent.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if l.inst == nil {
		return nil
	}
	err := l.inst.Close()
	l.inst = nil
	return err
}
