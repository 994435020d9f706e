package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/forge/internal/logging"
	"github.com/aretw0/forge/pkg/domain"
)

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates a stream manager. A nil logger discards output.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "session_id", sessionID, "payload_size", len(msg))

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Observe broadcasts the diff between two project snapshots.
// It has the shape of session.Observer so the session manager can feed streams directly.
func (sm *StreamManager) Observe(ctx context.Context, previous, current *domain.Project) {
	diff := domain.Diff(previous, current)
	if diff == nil {
		sm.logger.Debug("StreamManager: No diff calculated", "session_id", current.ID)
		return
	}
	payload, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("StreamManager: Diff encode failed", "session_id", current.ID, "err", err)
		return
	}
	sm.Broadcast(current.ID, string(payload))
}

// keepDiff applies the SSE 'watch' filter to an encoded diff.
func keepDiff(msg string, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	var diff domain.ProjectDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch field {
		case "steps":
			if len(diff.Appended) > 0 {
				return true
			}
		case "status":
			if len(diff.Statuses) > 0 {
				return true
			}
		case "files":
			if len(diff.Files) > 0 {
				return true
			}
		}
	}
	return false
}
