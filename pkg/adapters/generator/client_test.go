package generator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/forge/internal/compiler"
	"github.com/aretw0/forge/pkg/adapters/generator"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Generator = (*generator.Client)(nil)

const uiPrompt = `<boltArtifact id="p1" title="Demo"><boltAction type="file" filePath="/src/index.ts">console.log(1)</boltAction></boltArtifact>`

const chatReply = `<boltArtifact id="p2" title="Follow"><boltAction type="shell">npm run dev</boltAction></boltArtifact>`

type backend struct {
	chatMessages []domain.Message
	templateHits int
	chatHits     int
}

func newBackend(t *testing.T, b *backend) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/template", func(w http.ResponseWriter, r *http.Request) {
		b.templateHits++
		var req struct {
			Prompt string `json:"prompt"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "build a todo app", req.Prompt)
		_ = json.NewEncoder(w).Encode(domain.Template{
			Prompts:   []string{"base prompt", "design prompt"},
			UIPrompts: []string{uiPrompt},
		})
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		b.chatHits++
		var req struct {
			Messages []domain.Message `json:"messages"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		b.chatMessages = req.Messages
		_ = json.NewEncoder(w).Encode(map[string]string{"response": chatReply})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Template(t *testing.T) {
	b := &backend{}
	srv := newBackend(t, b)

	tmpl, err := generator.New(srv.URL+"/").Template(context.Background(), "build a todo app")
	require.NoError(t, err)
	assert.Equal(t, []string{"base prompt", "design prompt"}, tmpl.Prompts)
	assert.Equal(t, []string{uiPrompt}, tmpl.UIPrompts)
}

func TestClient_Bootstrap(t *testing.T) {
	b := &backend{}
	srv := newBackend(t, b)
	client := generator.New(srv.URL)

	texts, err := client.Bootstrap(context.Background(), "build a todo app")
	require.NoError(t, err)
	require.Equal(t, []string{uiPrompt, chatReply}, texts)

	assert.Equal(t, []domain.Message{
		{Role: domain.RoleUser, Content: "base prompt"},
		{Role: domain.RoleUser, Content: "design prompt"},
		{Role: domain.RoleUser, Content: "build a todo app"},
	}, b.chatMessages)

	// Both texts feed the parser in arrival order.
	parser := compiler.NewParser()
	var steps []domain.Step
	for _, text := range texts {
		steps = append(steps, parser.Parse(text).Steps...)
	}
	require.Len(t, steps, 4)
	assert.Equal(t, "/src/index.ts", steps[1].Path)
	assert.Equal(t, "npm run dev", steps[3].Code)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := generator.New(srv.URL).Chat(context.Background(), nil)
	require.Error(t, err)

	var statusErr *generator.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Equal(t, "upstream exploded", statusErr.Body)
}

func TestClient_Cancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	texts, err := generator.New(srv.URL).Bootstrap(ctx, "anything")
	require.Error(t, err)
	assert.Nil(t, texts)
}

type stubGenerator struct {
	tmpl domain.Template
	chat func(ctx context.Context) (string, error)
}

func (s stubGenerator) Template(context.Context, string) (domain.Template, error) {
	return s.tmpl, nil
}

func (s stubGenerator) Chat(ctx context.Context, _ []domain.Message) (string, error) {
	return s.chat(ctx)
}

func TestBootstrap_NoUIPrompt(t *testing.T) {
	gen := stubGenerator{chat: func(context.Context) (string, error) {
		t.Fatal("chat must not be called")
		return "", nil
	}}

	_, err := generator.Bootstrap(context.Background(), gen, "x")
	assert.ErrorIs(t, err, generator.ErrNoUIPrompt)
}

func TestBootstrap_CancelledDuringChat(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := stubGenerator{
		tmpl: domain.Template{UIPrompts: []string{uiPrompt}},
		chat: func(context.Context) (string, error) {
			cancel()
			return chatReply, nil
		},
	}

	texts, err := generator.Bootstrap(ctx, gen, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, texts)
}
