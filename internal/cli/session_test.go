package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/forge/internal/config"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse_Formats(t *testing.T) {
	app := newTestApp(t, nil)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, Parse(ctx, app, "", "", strings.NewReader(demoResponse), &out))
	var parsed ParseOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &parsed))
	assert.Equal(t, "artifact", parsed.Mode)
	require.Len(t, parsed.Steps, 3)
	assert.Equal(t, domain.StepCreateFolder, parsed.Steps[0].Type)

	out.Reset()
	require.NoError(t, Parse(ctx, app, "", FormatYAML, strings.NewReader(demoResponse), &out))
	var fromYAML ParseOutput
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &fromYAML))
	assert.Equal(t, parsed, fromYAML)

	out.Reset()
	require.NoError(t, Parse(ctx, app, "", FormatText, strings.NewReader(demoResponse), &out))
	assert.Contains(t, out.String(), "`npm run dev`")

	out.Reset()
	require.NoError(t, Parse(ctx, app, "", "", strings.NewReader("plain prose"), &out))
	assert.JSONEq(t, `{"mode":"none","steps":[]}`, out.String())

	assert.Error(t, Parse(ctx, app, "", "toml", strings.NewReader(demoResponse), &out))
}

func TestSessionCommands(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.Transcripts.Dir = t.TempDir()
	})
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, ListSessions(ctx, app, &out))
	assert.Equal(t, "No sessions found.\n", out.String())

	_, _, err := app.Sessions.Ingest(ctx, "s1", demoResponse)
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, ListSessions(ctx, app, &out))
	assert.Contains(t, out.String(), "- s1")

	out.Reset()
	require.NoError(t, ShowSession(ctx, app, "s1", FormatText, &out))
	assert.Contains(t, out.String(), "# Demo")
	assert.Contains(t, out.String(), "src/")

	out.Reset()
	require.NoError(t, ShowSession(ctx, app, "s1", FormatJSON, &out))
	var project domain.Project
	require.NoError(t, json.Unmarshal(out.Bytes(), &project))
	assert.Len(t, project.Steps, 3)

	out.Reset()
	require.NoError(t, ShowTree(ctx, app, "s1", false, &out))
	assert.Equal(t, "└── src/\n    └── index.ts\n", out.String())

	out.Reset()
	require.NoError(t, ShowTree(ctx, app, "s1", true, &out))
	assert.JSONEq(t, `{"src":{"directory":{"index.ts":{"file":{"contents":"console.log(1)"}}}}}`, out.String())

	out.Reset()
	require.NoError(t, ShowGraph(ctx, app, "s1", &out))
	assert.True(t, strings.HasPrefix(out.String(), "graph TD\n"))
	assert.Contains(t, out.String(), `root(("Demo"))`)

	out.Reset()
	require.NoError(t, ShowLog(ctx, app, "s1", &out))
	assert.Contains(t, out.String(), "#1")
	assert.Contains(t, out.String(), "3 steps")

	out.Reset()
	require.NoError(t, RemoveSessions(ctx, app, []string{"s1"}, &out))
	assert.Equal(t, "Removed session 's1'\n", out.String())

	err = ShowSession(ctx, app, "s1", FormatText, &out)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestShowLog_Disabled(t *testing.T) {
	app := newTestApp(t, nil)
	assert.Error(t, ShowLog(context.Background(), app, "s1", &bytes.Buffer{}))
}
