package ports

import (
	"context"

	"github.com/aretw0/forge/pkg/domain"
)

// ProjectStore defines the interface for persisting generation sessions.
// It lets a session survive restarts and move between replicas.
type ProjectStore interface {
	// Save persists the project for a given session ID.
	Save(ctx context.Context, sessionID string, project *domain.Project) error

	// Load retrieves the project for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Project, error)

	// Delete removes the project for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
