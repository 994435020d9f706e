package ports

import (
	"context"

	"github.com/aretw0/forge/pkg/domain"
)

// TranscriptStore keeps the raw generator responses of each session.
type TranscriptStore interface {
	Append(ctx context.Context, t domain.Transcript) error

	// List returns a session's transcripts ordered by Seq.
	List(ctx context.Context, sessionID string) ([]domain.Transcript, error)
}
