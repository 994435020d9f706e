package memory

import (
	"context"
	"sync"

	"github.com/aretw0/forge/pkg/domain"
)

// Store implements ports.ProjectStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Project
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Project),
	}
}

// Save persists the project in memory.
// Step slices are copied; trees are shared because they are never edited in place.
func (s *Store) Save(ctx context.Context, sessionID string, project *domain.Project) error {
	copied := project.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves the project from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so the caller can't mutate store state through the step slice.
	return project.Snapshot(), nil
}

// Delete removes the project.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns stored sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
