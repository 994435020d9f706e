package sandbox

import (
	"context"
	"sync"

	"github.com/aretw0/forge/pkg/domain"
)

// Recorder keeps mounted descriptors in memory. It backs dry runs and tests.
type Recorder struct {
	mu     sync.Mutex
	mounts []domain.MountDescriptor
	closed bool

	// Err, when set, is returned by Mount instead of recording.
	Err error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Mount(ctx context.Context, mount domain.MountDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.Err != nil {
		return r.Err
	}
	r.mounts = append(r.mounts, mount)
	return nil
}

// Mounts returns every descriptor mounted so far, oldest first.
func (r *Recorder) Mounts() []domain.MountDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.MountDescriptor(nil), r.mounts...)
}

// Last returns the latest descriptor, or nil.
func (r *Recorder) Last() domain.MountDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.mounts) == 0 {
		return nil
	}
	return r.mounts[len(r.mounts)-1]
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
