package ports

import (
	"context"

	"github.com/aretw0/forge/pkg/domain"
)

// Sandbox is an execution environment that can load a project file tree.
type Sandbox interface {
	// Mount loads the descriptor contents into the sandbox file system.
	Mount(ctx context.Context, mount domain.MountDescriptor) error

	// Close releases the sandbox. Mount fails after Close.
	Close() error
}
