package runtime_test

import (
	"errors"
	"testing"

	"github.com/aretw0/forge/internal/compiler"
	"github.com/aretw0/forge/internal/runtime"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createFile(path, code string) domain.Step {
	return domain.Step{Type: domain.StepCreateFile, Status: domain.StatusPending, Path: path, Code: code, Name: path}
}

func shell(cmd string) domain.Step {
	return domain.Step{Type: domain.StepRunScript, Status: domain.StatusPending, Code: cmd, Name: "Run Command"}
}

func folder(title string) domain.Step {
	return domain.Step{Type: domain.StepCreateFolder, Status: domain.StatusPending, Name: title, Title: title}
}

func TestMaterialize_DemoExample(t *testing.T) {
	steps := compiler.NewParser().Parse(`<boltArtifact id="p1" title="Demo"><boltAction type="file" filePath="src/index.ts">console.log(1)</boltAction><boltAction type="shell">npm run dev</boltAction></boltArtifact>`).Steps
	require.Len(t, steps, 3)

	res := runtime.Materialize(domain.NewTree(), steps)
	require.True(t, res.Changed)

	want := &domain.Tree{Items: []*domain.FileItem{{
		Name: "src",
		Path: "/src",
		Type: domain.FileTypeFolder,
		Children: []*domain.FileItem{{
			Name:    "index.ts",
			Path:    "/src/index.ts",
			Type:    domain.FileTypeFile,
			Content: "console.log(1)",
		}},
	}}}
	if diff := cmp.Diff(want, res.Tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	mount := runtime.CompileMount(res.Tree)
	require.Contains(t, mount, "src")
	require.True(t, mount["src"].IsDir())
	assert.Equal(t, "console.log(1)", mount["src"].Directory["index.ts"].File.Contents)
}

func TestMaterialize_PathWalkReachesContent(t *testing.T) {
	steps := []domain.Step{
		createFile("/a/b/c.txt", "c"),
		createFile("a/d.txt", "d"),
		createFile("//x//y.go", "y"),
		createFile("top.md", ""),
	}
	res := runtime.Materialize(domain.NewTree(), steps)

	for _, s := range steps {
		node := res.Tree.Find(s.Path)
		require.NotNil(t, node, s.Path)
		assert.Equal(t, domain.FileTypeFile, node.Type)
		assert.Equal(t, s.Code, node.Content)
	}
	assert.Equal(t, "/x/y.go", res.Tree.Find("x/y.go").Path)
	assert.Equal(t, 7, res.Tree.Len())
}

func TestMaterialize_Idempotent(t *testing.T) {
	step := createFile("src/app.ts", "export {}")
	first := runtime.Materialize(domain.NewTree(), []domain.Step{step})
	second := runtime.Materialize(first.Tree, []domain.Step{step})

	assert.Equal(t, first.Tree.Len(), second.Tree.Len())
	assert.Same(t, first.Tree, second.Tree, "rewriting identical content keeps the tree")
	require.Len(t, second.Applied, 1)
	assert.True(t, second.Applied[0].Unchanged)
	assert.Equal(t, "export {}", second.Tree.Find("src/app.ts").Content)
}

func TestMaterialize_LastWriteWins(t *testing.T) {
	res := runtime.Materialize(domain.NewTree(), []domain.Step{
		createFile("a.txt", "one"),
		createFile("/a.txt", "two"),
	})
	assert.Equal(t, 1, res.Tree.Len())
	assert.Equal(t, "two", res.Tree.Find("a.txt").Content)
	require.Len(t, res.Applied, 2)
	assert.False(t, res.Applied[0].Overwrite)
	assert.True(t, res.Applied[1].Overwrite)
}

func TestMaterialize_NoPendingFileKeepsTree(t *testing.T) {
	base := runtime.Materialize(domain.NewTree(), []domain.Step{createFile("a.txt", "a")})

	t.Run("Only Shell Steps", func(t *testing.T) {
		steps := []domain.Step{shell("ls")}
		res := runtime.Materialize(base.Tree, steps)
		assert.Same(t, base.Tree, res.Tree)
		assert.False(t, res.Changed)
		assert.Same(t, &steps[0], &res.Steps[0], "the step slice is returned as is")
	})

	t.Run("Already Completed", func(t *testing.T) {
		res := runtime.Materialize(base.Tree, base.Steps)
		assert.Same(t, base.Tree, res.Tree)
		assert.False(t, res.Changed)
	})

	t.Run("Empty Input", func(t *testing.T) {
		res := runtime.Materialize(base.Tree, nil)
		assert.Same(t, base.Tree, res.Tree)
	})
}

func TestMaterialize_DoesNotMutateInput(t *testing.T) {
	first := runtime.Materialize(domain.NewTree(), []domain.Step{
		createFile("src/a.ts", "a"),
		createFile("lib/b.ts", "b"),
	})
	before := cloneTree(first.Tree)

	steps := []domain.Step{createFile("src/a.ts", "changed"), createFile("src/new.ts", "n")}
	stepsBefore := append([]domain.Step(nil), steps...)

	res := runtime.Materialize(first.Tree, steps)

	if diff := cmp.Diff(before, first.Tree); diff != "" {
		t.Errorf("input tree mutated (-before +after):\n%s", diff)
	}
	assert.Equal(t, stepsBefore, steps)
	assert.NotSame(t, first.Tree, res.Tree)
	assert.Equal(t, "changed", res.Tree.Find("src/a.ts").Content)
	assert.Same(t, first.Tree.Items[1], res.Tree.Items[1], "untouched subtrees are shared")
}

func TestMaterialize_Collisions(t *testing.T) {
	base := runtime.Materialize(domain.NewTree(), []domain.Step{
		createFile("src/index.ts", "x"),
		createFile("README.md", "r"),
	}).Tree

	tests := []struct {
		name string
		step domain.Step
		err  error
	}{
		{name: "File Under File", step: createFile("README.md/extra", "e"), err: domain.ErrPathCollision},
		{name: "File Over Folder", step: createFile("src", "s"), err: domain.ErrPathCollision},
		{name: "Empty Path", step: createFile("", "e"), err: domain.ErrEmptyPath},
		{name: "Only Slashes", step: createFile("///", "e"), err: domain.ErrEmptyPath},
		{name: "Only Dots", step: createFile("./.", "e"), err: domain.ErrEmptyPath},
		{name: "Parent Segment", step: createFile("../x", "e"), err: domain.ErrInvalidPath},
		{name: "Inner Parent Segment", step: createFile("src/../../x", "e"), err: domain.ErrInvalidPath},
		{name: "Backslash", step: createFile(`src\x.ts`, "e"), err: domain.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runtime.Materialize(base, []domain.Step{tt.step})
			assert.Same(t, base, res.Tree)
			require.Len(t, res.Skipped, 1)
			assert.True(t, errors.Is(res.Skipped[0], tt.err))
			assert.Empty(t, res.Applied)
			assert.Equal(t, domain.StatusCompleted, res.Steps[0].Status, "skipped steps are consumed")
			assert.True(t, res.Changed)
		})
	}
}

func TestMaterialize_DotSegments(t *testing.T) {
	res := runtime.Materialize(domain.NewTree(), []domain.Step{
		createFile("./x", "x"),
		createFile("src/./index.ts", "i"),
	})
	require.Empty(t, res.Skipped)
	require.Len(t, res.Applied, 2)
	assert.Equal(t, "/x", res.Applied[0].Path)
	assert.Equal(t, "/src/index.ts", res.Applied[1].Path)

	mount := runtime.CompileMount(res.Tree)
	assert.Equal(t, "x", mount["x"].File.Contents)
	assert.Equal(t, "i", mount["src"].Directory["index.ts"].File.Contents)
	_, ok := mount["."]
	assert.False(t, ok)
}

func TestMaterialize_PerStepPolicy(t *testing.T) {
	steps := []domain.Step{folder("Demo"), createFile("a.txt", "a"), shell("npm i")}
	res := runtime.NewMaterializer().Apply(domain.NewTree(), steps)

	assert.Equal(t, domain.StatusCompleted, res.Steps[0].Status)
	assert.Equal(t, domain.StatusCompleted, res.Steps[1].Status)
	assert.Equal(t, domain.StatusPending, res.Steps[2].Status)
	assert.Equal(t, domain.StatusPending, steps[0].Status, "input steps keep their status")

	again := runtime.NewMaterializer().Apply(res.Tree, res.Steps)
	assert.False(t, again.Changed)
	assert.Same(t, res.Tree, again.Tree)

	t.Run("Folder Only", func(t *testing.T) {
		res := runtime.Materialize(domain.NewTree(), []domain.Step{folder("Only")})
		assert.True(t, res.Changed)
		assert.Equal(t, domain.StatusCompleted, res.Steps[0].Status)
		assert.Equal(t, 0, res.Tree.Len())
	})
}

func TestMaterialize_LegacyPolicy(t *testing.T) {
	m := runtime.NewMaterializer(runtime.WithCompletionPolicy(runtime.PolicyLegacy))
	assert.Equal(t, runtime.PolicyLegacy, m.Policy())

	steps := []domain.Step{folder("Demo"), shell("npm i"), createFile("a.txt", "a")}
	res := m.Apply(domain.NewTree(), steps)
	for _, s := range res.Steps {
		assert.Equal(t, domain.StatusCompleted, s.Status)
	}

	t.Run("No File Step Leaves Statuses", func(t *testing.T) {
		steps := []domain.Step{folder("Demo"), shell("npm i")}
		res := m.Apply(domain.NewTree(), steps)
		assert.False(t, res.Changed)
		assert.Equal(t, domain.StatusPending, res.Steps[0].Status)
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := runtime.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, runtime.PolicyPerStep, p)

	p, err = runtime.ParsePolicy(" Legacy ")
	require.NoError(t, err)
	assert.Equal(t, runtime.PolicyLegacy, p)

	_, err = runtime.ParsePolicy("eventually")
	assert.Error(t, err)
}

func cloneTree(t *domain.Tree) *domain.Tree {
	return &domain.Tree{Items: cloneItems(t.Items)}
}

func cloneItems(items []*domain.FileItem) []*domain.FileItem {
	out := make([]*domain.FileItem, 0, len(items))
	for _, it := range items {
		cp := *it
		if it.Children != nil {
			cp.Children = cloneItems(it.Children)
		}
		out = append(out, &cp)
	}
	return out
}
