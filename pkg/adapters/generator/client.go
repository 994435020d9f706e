package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/forge/internal/logging"
	"github.com/aretw0/forge/pkg/domain"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 2 * time.Minute

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// Client talks to the prompt-completion backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type templateRequest struct {
	Prompt string `json:"prompt"`
}

type chatRequest struct {
	Messages []domain.Message `json:"messages"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Template asks the backend for the seed prompts of a new project.
func (c *Client) Template(ctx context.Context, prompt string) (domain.Template, error) {
	var out domain.Template
	if err := c.post(ctx, "/template", templateRequest{Prompt: prompt}, &out); err != nil {
		return domain.Template{}, err
	}
	return out, nil
}

// Chat sends the conversation and returns the raw generator response.
func (c *Client) Chat(ctx context.Context, messages []domain.Message) (string, error) {
	var out chatResponse
	if err := c.post(ctx, "/chat", chatRequest{Messages: messages}, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("generator %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("generator request", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generator %s returned %d", e.Path, e.Code)
	}
	return fmt.Sprintf("generator %s returned %d: %s", e.Path, e.Code, e.Body)
}
