package compiler_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/forge/internal/compiler"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demo = "<boltArtifact id=\"p1\" title=\"Demo\">\n" +
	"<boltAction type=\"file\" filePath=\"src/index.ts\">console.log(1)</boltAction>\n" +
	"<boltAction type=\"shell\">npm run dev</boltAction>\n" +
	"</boltArtifact>"

func TestParse_Demo(t *testing.T) {
	res := compiler.NewParser().Parse(demo)
	require.Len(t, res.Steps, 3)
	assert.Equal(t, compiler.ModeArtifact, res.Mode)
	assert.False(t, res.Fallback())

	folder, file, shell := res.Steps[0], res.Steps[1], res.Steps[2]

	assert.Equal(t, domain.StepCreateFolder, folder.Type)
	assert.Equal(t, "Demo", folder.Title)
	assert.Equal(t, "Demo", folder.Name)
	assert.Equal(t, "Initialize project: Demo", folder.Description)

	assert.Equal(t, domain.StepCreateFile, file.Type)
	assert.Equal(t, "src/index.ts", file.Path)
	assert.Equal(t, "index.ts", file.Name)
	assert.Equal(t, "console.log(1)", file.Code)
	assert.Equal(t, "Create index.ts", file.Title)
	assert.Equal(t, "Create file at path: src/index.ts", file.Description)

	assert.Equal(t, domain.StepRunScript, shell.Type)
	assert.Equal(t, "npm run dev", shell.Code)
	assert.Equal(t, "Run Command", shell.Name)
	assert.Equal(t, "Execute: npm run dev", shell.Description)

	for i, s := range res.Steps {
		assert.Equal(t, i, s.ID, "ids follow encounter order")
		assert.Equal(t, domain.StatusPending, s.Status)
	}
}

func TestParse_CountsActions(t *testing.T) {
	for _, tc := range []struct{ files, shells int }{{0, 0}, {1, 0}, {0, 2}, {3, 4}} {
		t.Run(fmt.Sprintf("%d files %d shells", tc.files, tc.shells), func(t *testing.T) {
			var b strings.Builder
			b.WriteString(`<boltArtifact id="x" title="Counted">`)
			for i := 0; i < tc.files; i++ {
				fmt.Fprintf(&b, `<boltAction type="file" filePath="f%d.txt">%d</boltAction>`, i, i)
				if i < tc.shells {
					fmt.Fprintf(&b, `<boltAction type="shell">echo %d</boltAction>`, i)
				}
			}
			for i := tc.files; i < tc.shells; i++ {
				fmt.Fprintf(&b, `<boltAction type="shell">echo %d</boltAction>`, i)
			}
			b.WriteString(`</boltArtifact>`)

			steps := compiler.NewParser().Parse(b.String()).Steps
			require.Len(t, steps, 1+tc.files+tc.shells)
			assert.Equal(t, domain.StepCreateFolder, steps[0].Type)
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	text := `<boltArtifact id="x">
  <boltAction type="file">no path</boltAction>
  <boltAction type="start">ignored</boltAction>
  <boltAction>ignored too</boltAction>
  <boltAction type="file" filePath="">empty path</boltAction>
</boltArtifact>`

	steps := compiler.NewParser().Parse(text).Steps
	require.Len(t, steps, 3)
	assert.Equal(t, "Unknown Project", steps[0].Title)
	assert.Equal(t, "unknown.txt", steps[1].Path)
	assert.Equal(t, "unknown.txt", steps[1].Name)
	assert.Equal(t, "", steps[2].Path, "an explicit empty attribute is not replaced by the default")
	assert.Equal(t, 2, steps[2].ID)
}

func TestParse_PayloadHandling(t *testing.T) {
	text := "<boltArtifact title=\"P\"><boltAction type=\"file\" filePath=\"a/b.txt\">\n  keep &amp; spaces  \n</boltAction>" +
		"<boltAction type=\"shell\">\n   npm install   \n</boltAction></boltArtifact>"

	steps := compiler.NewParser().Parse(text).Steps
	require.Len(t, steps, 3)
	assert.Equal(t, "\n  keep &amp; spaces  \n", steps[1].Code, "file bodies are verbatim")
	assert.Equal(t, "npm install", steps[2].Code, "shell bodies are trimmed")
}

func TestParse_AttributeVariants(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTitle string
		wantPath  string
	}{
		{
			name:      "Single Quotes",
			text:      `<boltArtifact title='Single'><boltAction type='file' filePath='x/y.go'>y</boltAction></boltArtifact>`,
			wantTitle: "Single",
			wantPath:  "x/y.go",
		},
		{
			name:      "Bare Values",
			text:      `<boltArtifact title=Bare><boltAction type=file filePath=main.go>m</boltAction></boltArtifact>`,
			wantTitle: "Bare",
			wantPath:  "main.go",
		},
		{
			name:      "Quotes Inside Values",
			text:      `<boltArtifact title="Bob's App"><boltAction filePath="a>b.txt" type="file">z</boltAction></boltArtifact>`,
			wantTitle: "Bob's App",
			wantPath:  "a>b.txt",
		},
		{
			name:      "Whitespace And Case",
			text:      "<boltArtifact\n  ID=\"p\"\n  Title = \"Spaced\"\n><boltAction\ttype=\"file\"\tFILEPATH=\"c.txt\" >c</boltAction ></boltArtifact>",
			wantTitle: "Spaced",
			wantPath:  "c.txt",
		},
		{
			name:      "Duplicate Attribute Keeps First",
			text:      `<boltArtifact title="First" title="Second"><boltAction type="file" filePath="1.txt" filePath="2.txt">1</boltAction></boltArtifact>`,
			wantTitle: "First",
			wantPath:  "1.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := compiler.NewParser().Parse(tt.text).Steps
			require.Len(t, steps, 2)
			assert.Equal(t, tt.wantTitle, steps[0].Title)
			assert.Equal(t, tt.wantPath, steps[1].Path)
		})
	}
}

func TestParse_MalformedStructure(t *testing.T) {
	t.Run("Missing Close Swallows Next Action", func(t *testing.T) {
		text := `<boltArtifact title="T">
<boltAction type="shell">ls</boltAction>
<boltAction type="file" filePath="cut.txt">never closed
<boltAction type="shell">pwd</boltAction>
</boltArtifact>`
		steps := compiler.NewParser().Parse(text).Steps
		require.Len(t, steps, 3)
		assert.Equal(t, "cut.txt", steps[2].Path)
		assert.Contains(t, steps[2].Code, "never closed")
		assert.Contains(t, steps[2].Code, "pwd")
	})

	t.Run("Unterminated Action Stops Scan", func(t *testing.T) {
		text := `<boltArtifact title="T"><boltAction type="shell">ls</boltAction><boltAction type="file" filePath="x.txt">open forever</boltArtifact>`
		steps := compiler.NewParser().Parse(text).Steps
		require.Len(t, steps, 2)
		assert.Equal(t, "ls", steps[1].Code)
	})

	t.Run("Unclosed Open Tag Ends Scan", func(t *testing.T) {
		text := `<boltArtifact title="T"><boltAction type="shell">ls</boltAction><boltAction type="file" filePath="x</boltArtifact>`
		steps := compiler.NewParser().Parse(text).Steps
		require.Len(t, steps, 2)
		assert.Equal(t, domain.StepRunScript, steps[1].Type)
	})

	t.Run("Self Closing Action", func(t *testing.T) {
		text := `<boltArtifact title="T"><boltAction type="file" filePath="empty.txt"/><boltAction type="shell">ls</boltAction></boltArtifact>`
		steps := compiler.NewParser().Parse(text).Steps
		require.Len(t, steps, 3)
		assert.Equal(t, "", steps[1].Code)
		assert.Equal(t, "ls", steps[2].Code)
	})

	t.Run("Self Closing After Bare Value", func(t *testing.T) {
		text := `<boltArtifact title=T><boltAction type=file filePath=a.ts/><boltAction type=shell>ls</boltAction></boltArtifact>`
		steps := compiler.NewParser().Parse(text).Steps
		require.Len(t, steps, 3)
		assert.Equal(t, "a.ts", steps[1].Path)
		assert.Equal(t, "", steps[1].Code)
		assert.Equal(t, "ls", steps[2].Code)
	})

	t.Run("Stray Closing Tag Ignored", func(t *testing.T) {
		text := `<boltArtifact title="T"></boltAction><boltAction type="shell">ls</boltAction></boltArtifact>`
		steps := compiler.NewParser().Parse(text).Steps
		require.Len(t, steps, 2)
	})

	t.Run("Longer Tag Name Is Not A Wrapper", func(t *testing.T) {
		res := compiler.NewParser().Parse(`<boltArtifactX title="T"></boltArtifactX>`)
		assert.Equal(t, compiler.ModeNone, res.Mode)
		assert.Empty(t, res.Steps)
	})

	t.Run("Unterminated Wrapper Falls Back", func(t *testing.T) {
		res := compiler.NewParser().Parse("<boltArtifact title=\"T\">\n```css\nbody{}\n```\n")
		assert.Equal(t, compiler.ModeFenced, res.Mode)
		require.Len(t, res.Steps, 1)
		assert.Equal(t, "src/components/GeneratedComponent0.css", res.Steps[0].Path)
	})

	t.Run("Trailing Slash Keeps Whole Path As Name", func(t *testing.T) {
		steps := compiler.NewParser().Parse(`<boltArtifact title="T"><boltAction type="file" filePath="dir/">x</boltAction></boltArtifact>`).Steps
		require.Len(t, steps, 2)
		assert.Equal(t, "dir/", steps[1].Name)
	})
}

func TestParse_FencedFallback(t *testing.T) {
	text := "Here you go:\n" +
		"```tsx\nconst a = 1;\n```\n" +
		"and styles\n" +
		"```css\nbody { margin: 0 }\n```\n" +
		"```\nplain\n```\n" +
		"```JavaScript\nlet b\n```\n" +
		"```json\n{}\n```\n" +
		"```html\n<p></p>\n```\n"

	res := compiler.NewParser().Parse(text)
	assert.Equal(t, compiler.ModeFenced, res.Mode)
	assert.True(t, res.Fallback())
	require.Len(t, res.Steps, 6)

	wantPaths := []string{
		"src/components/GeneratedComponent0.tsx",
		"src/components/GeneratedComponent1.css",
		"src/components/GeneratedComponent2.txt",
		"src/components/GeneratedComponent3.jsx",
		"src/components/GeneratedComponent4.json",
		"src/components/GeneratedComponent5.html",
	}
	for i, s := range res.Steps {
		assert.Equal(t, i, s.ID)
		assert.Equal(t, domain.StepCreateFile, s.Type)
		assert.Equal(t, wantPaths[i], s.Path)
	}
	assert.Equal(t, "const a = 1;\n", res.Steps[0].Code)
	assert.Equal(t, "GeneratedComponent1.css", res.Steps[1].Name)
}

func TestParse_SourceHeuristic(t *testing.T) {
	sources := map[string]string{
		"import":          "import React from 'react';\nexport default App;",
		"export function": "  export function App() { return null }  ",
		"const":           "const answer = 42;",
		"function":        "function main() {}",
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			res := compiler.NewParser().Parse(src)
			assert.Equal(t, compiler.ModeSource, res.Mode)
			require.Len(t, res.Steps, 1)
			assert.Equal(t, "src/components/GeneratedComponent.tsx", res.Steps[0].Path)
			assert.Equal(t, strings.TrimSpace(src), res.Steps[0].Code)
			assert.Equal(t, 0, res.Steps[0].ID)
		})
	}
}

func TestParse_NothingRecognizable(t *testing.T) {
	for _, text := range []string{
		"",
		"   \n\t",
		"Sorry, I cannot help with that request.",
		"Use a <div> for layout, then style it.",
	} {
		res := compiler.NewParser().Parse(text)
		assert.Equal(t, compiler.ModeNone, res.Mode, text)
		assert.NotNil(t, res.Steps)
		assert.Empty(t, res.Steps, text)
	}
}

func TestParse_CustomTags(t *testing.T) {
	p := compiler.NewParser(compiler.WithTags("project", "op"))
	steps := p.Parse(`<project title="Custom"><op type="shell">make</op></project>`).Steps
	require.Len(t, steps, 2)
	assert.Equal(t, "Custom", steps[0].Title)
	assert.Equal(t, "make", steps[1].Code)

	assert.Equal(t, compiler.ModeNone, p.Parse(demo).Mode)
	assert.Equal(t, compiler.ModeNone, p.Parse("<boltArtifact title=\"x\"></boltArtifact>").Mode)
}
