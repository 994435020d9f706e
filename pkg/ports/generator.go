package ports

import (
	"context"

	"github.com/aretw0/forge/pkg/domain"
)

// Generator is the prompt-completion backend that writes projects.
type Generator interface {
	// Template asks for the seed prompts of a new project.
	Template(ctx context.Context, prompt string) (domain.Template, error)

	// Chat sends the conversation and returns the generator's raw response text.
	Chat(ctx context.Context, messages []domain.Message) (string, error)
}
