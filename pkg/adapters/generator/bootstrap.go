package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/ports"
)

// ErrNoUIPrompt is returned when the template carries no UI prompt to start from.
var ErrNoUIPrompt = errors.New("template has no ui prompt")

// Bootstrap runs the start-up exchange for a new project and returns the
// generator texts in arrival order: the template's first UI prompt, then the
// chat response. The chat call sends every template prompt followed by the
// user's own prompt as user messages.
//
// Any error, including context cancellation, returns nothing so no partial
// text reaches the parser.
func Bootstrap(ctx context.Context, gen ports.Generator, prompt string) ([]string, error) {
	tmpl, err := gen.Template(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template: %w", err)
	}
	if len(tmpl.UIPrompts) == 0 {
		return nil, ErrNoUIPrompt
	}

	messages := make([]domain.Message, 0, len(tmpl.Prompts)+1)
	for _, p := range tmpl.Prompts {
		messages = append(messages, domain.Message{Role: domain.RoleUser, Content: p})
	}
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: prompt})

	reply, err := gen.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to chat: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return []string{tmpl.UIPrompts[0], reply}, nil
}

// Bootstrap runs the start-up exchange against this client's backend.
func (c *Client) Bootstrap(ctx context.Context, prompt string) ([]string, error) {
	return Bootstrap(ctx, c, prompt)
}
