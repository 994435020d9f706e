package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/forge"
	"github.com/aretw0/forge/pkg/adapters/memory"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoResponse = `<boltArtifact id="p1" title="Demo">
<boltAction type="file" filePath="/src/index.ts">console.log(1)</boltAction>
<boltAction type="shell">npm run dev</boltAction>
</boltArtifact>`

type fixture struct {
	handler http.Handler
	streams *StreamManager
	metrics *Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	streams := NewStreamManager(nil)
	metrics := NewMetrics()
	mgr := session.NewManager(memory.NewStore(),
		session.WithEngine(forge.New(forge.WithLifecycleHooks(metrics.Hooks()))),
		session.WithObserver(streams.Observe),
	)
	return fixture{
		handler: NewHandler(mgr, WithStreams(streams), WithMetrics(metrics)),
		streams: streams,
		metrics: metrics,
	}
}

func (f fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestParse(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/parse", demoResponse)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp parseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "artifact", resp.Mode)
	require.Len(t, resp.Steps, 3)
	assert.Equal(t, domain.StepCreateFolder, resp.Steps[0].Type)
	assert.Equal(t, "/src/index.ts", resp.Steps[1].Path)
	assert.Equal(t, "npm run dev", resp.Steps[2].Code)

	w = f.do(t, http.MethodPost, "/parse", "nothing here")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mode":"none","steps":[]}`, w.Body.String())
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/sessions/s1", `{"prompt":"todo app"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/sessions/s1/responses", demoResponse)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ingest ingestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ingest))
	assert.Equal(t, "todo app", ingest.Project.Prompt)
	require.Len(t, ingest.Project.Steps, 3)
	require.Len(t, ingest.Applied, 1)
	assert.Equal(t, "/src/index.ts", ingest.Applied[0].Path)
	assert.Empty(t, ingest.Skipped)

	w = f.do(t, http.MethodGet, "/sessions/s1/mount", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"src":{"directory":{"index.ts":{"file":{"contents":"console.log(1)"}}}}}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/sessions/s1/tree", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tree domain.Tree
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree))
	require.NotNil(t, tree.Find("/src/index.ts"))

	w = f.do(t, http.MethodGet, "/sessions/s1/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `root(("Demo"))`)
	assert.Contains(t, w.Body.String(), `["index.ts"]`)

	w = f.do(t, http.MethodPost, "/sessions/s1/steps/2/complete", "")
	require.Equal(t, http.StatusOK, w.Code)
	var project domain.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))
	assert.Equal(t, domain.StatusCompleted, project.Steps[2].Status)

	w = f.do(t, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["s1"]`, w.Body.String())

	w = f.do(t, http.MethodDelete, "/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/sessions/s1/responses", demoResponse).Code)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"Unknown Session", http.MethodGet, "/sessions/missing/tree", "", http.StatusNotFound},
		{"Complete Unknown Session", http.MethodPost, "/sessions/missing/steps/0/complete", "", http.StatusNotFound},
		{"Index Out Of Range", http.MethodPost, "/sessions/s1/steps/9/complete", "", http.StatusBadRequest},
		{"Index Not A Number", http.MethodPost, "/sessions/s1/steps/x/complete", "", http.StatusBadRequest},
		{"Bad Create Body", http.MethodPost, "/sessions/s2", "{", http.StatusBadRequest},
		{"Events Without Session", http.MethodGet, "/events", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/parse", strings.Repeat("a", MaxBodyBytes+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHealthInfoAndCORS(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = f.do(t, http.MethodGet, "/info", "")
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "forge-http", info["app"])
	assert.Equal(t, strings.TrimSpace(forge.Version), info["version"])
	assert.Equal(t, "0.1.0", info["api_version"])

	w = f.do(t, http.MethodOptions, "/parse", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/sessions/m1/responses", demoResponse).Code)

	w := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `forge_parses_total{fallback="false"} 1`)
	assert.Contains(t, body, "forge_steps_parsed_total 3")
	assert.Contains(t, body, `forge_files_written_total{overwrite="false"} 1`)
}

func TestOpenAPI_DocumentsEveryRoute(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)

	f := newFixture(t)
	routes, ok := f.handler.(chi.Routes)
	require.True(t, ok)

	err = chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		item := doc.Paths.Value(route)
		if assert.NotNil(t, item, "route %s is not documented", route) {
			assert.NotNil(t, item.GetOperation(method), "%s %s is not documented", method, route)
		}
		return nil
	})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "title: Forge API")
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?session_id=sess-1&watch=files", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readData := func() string {
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				return data
			}
		}
		return ""
	}
	require.Equal(t, "connected", readData())

	// Completing a step changes statuses only; the files filter drops it.
	post := func(target, body string) {
		res, err := http.Post(srv.URL+target, "text/plain", strings.NewReader(body))
		require.NoError(t, err)
		res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	}
	post("/sessions/sess-1/responses", demoResponse)
	post("/sessions/sess-1/steps/2/complete", "")
	post("/sessions/sess-1/responses", `<boltArtifact title="More"><boltAction type="file" filePath="b.txt">b</boltAction></boltArtifact>`)

	var first domain.ProjectDiff
	require.NoError(t, json.Unmarshal([]byte(readData()), &first))
	assert.Equal(t, "sess-1", first.SessionID)
	assert.Len(t, first.Appended, 3)
	assert.Equal(t, []string{"/src/index.ts"}, first.Files)

	var second domain.ProjectDiff
	require.NoError(t, json.Unmarshal([]byte(readData()), &second))
	assert.Equal(t, []string{"/b.txt"}, second.Files)
	assert.Len(t, second.Appended, 2)
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s")

	for i := 0; i < 15; i++ {
		sm.Broadcast("s", "msg")
	}
	assert.Len(t, ch, 10)

	cancel()
	cancel()
	_, open := <-drain(ch)
	assert.False(t, open)
}

func drain(ch chan string) chan string {
	for len(ch) > 0 {
		<-ch
	}
	return ch
}
