package loam

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"gopkg.in/yaml.v3"
)

// TranscriptStore archives generator responses as Markdown documents in a Loam
// repository: one document per response, frontmatter for metadata, the raw text
// as body. Documents live at <session>/<seq>.md.
type TranscriptStore struct {
	repo  core.Repository
	typed *loam.TypedRepository[TranscriptMetadata]
}

// NewTranscriptStore wraps an initialized Loam repository.
func NewTranscriptStore(repo core.Repository) *TranscriptStore {
	return &TranscriptStore{
		repo:  repo,
		typed: loam.NewTypedRepository[TranscriptMetadata](repo),
	}
}

// Open initializes a Loam repository at path for transcripts.
func Open(path string) (*TranscriptStore, error) {
	repo, err := loam.Init(path, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return NewTranscriptStore(repo), nil
}

func documentID(sessionID string, seq int) string {
	return fmt.Sprintf("%s/%04d.md", sessionID, seq)
}

// Append writes one transcript document.
func (s *TranscriptStore) Append(ctx context.Context, t domain.Transcript) error {
	if t.SessionID == "" || strings.ContainsAny(t.SessionID, `/\`) {
		return fmt.Errorf("invalid session id %q", t.SessionID)
	}

	meta := TranscriptMetadata{
		SessionID:  t.SessionID,
		Seq:        t.Seq,
		Steps:      t.Steps,
		Mode:       t.Mode,
		ReceivedAt: t.ReceivedAt.UTC().Format(time.RFC3339Nano),
	}
	front, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript metadata: %w", err)
	}

	doc := core.Document{
		ID:      documentID(t.SessionID, t.Seq),
		Content: "---\n" + string(front) + "---\n" + t.Text,
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return fmt.Errorf("loam save failed for %s: %w", doc.ID, err)
	}
	return nil
}

// List returns the transcripts of one session ordered by Seq.
func (s *TranscriptStore) List(ctx context.Context, sessionID string) ([]domain.Transcript, error) {
	docs, err := s.typed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	var out []domain.Transcript
	for _, doc := range docs {
		if doc.Data.SessionID != sessionID {
			continue
		}
		received, _ := time.Parse(time.RFC3339Nano, doc.Data.ReceivedAt)
		out = append(out, domain.Transcript{
			SessionID:  doc.Data.SessionID,
			Seq:        doc.Data.Seq,
			Steps:      doc.Data.Steps,
			Mode:       doc.Data.Mode,
			ReceivedAt: received,
			Text:       doc.Content,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
