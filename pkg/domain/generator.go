package domain

import "time"

// Message roles understood by the prompt-completion backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to the generator.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Template is the backend's answer to a project prompt: seed prompts for the
// chat call and pre-built generator responses for the UI.
type Template struct {
	Prompts   []string `json:"prompts"`
	UIPrompts []string `json:"uiPrompts"`
}

// Transcript is one generator response received for a session.
type Transcript struct {
	SessionID  string    `json:"session_id" yaml:"session_id"`
	Seq        int       `json:"seq" yaml:"seq"`
	Steps      int       `json:"steps" yaml:"steps"`
	Mode       string    `json:"mode" yaml:"mode"`
	ReceivedAt time.Time `json:"received_at" yaml:"received_at"`
	Text       string    `json:"text" yaml:"-"`
}
