package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/forge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunProjectStoreContract runs a suite of tests to verify that a ProjectStore implementation
// adheres to the defined interface contract.
func RunProjectStoreContract(t *testing.T, store ProjectStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		project := sampleProject(sessionID)

		err := store.Save(ctx, sessionID, project)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, project.ID, loaded.ID)
		assert.Equal(t, project.Prompt, loaded.Prompt)
		assert.Equal(t, project.Responses, loaded.Responses)
		assert.Equal(t, project.Steps, loaded.Steps)
		assert.True(t, project.UpdatedAt.Equal(loaded.UpdatedAt))

		require.NotNil(t, loaded.Tree)
		node := loaded.Tree.Find("src/index.ts")
		require.NotNil(t, node, "tree should survive a round trip")
		assert.Equal(t, "console.log(1)", node.Content)
		assert.Equal(t, project.Tree.Len(), loaded.Tree.Len())
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		project := sampleProject(sessionID)
		project.Responses = 7
		require.NoError(t, store.Save(ctx, sessionID, project))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 7, loaded.Responses)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewProject(sessionID, ""))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewProject(id1, ""))
		_ = store.Save(ctx, id2, domain.NewProject(id2, ""))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

func sampleProject(id string) *domain.Project {
	p := domain.NewProject(id, "a demo app")
	p.Responses = 1
	p.UpdatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.Steps = []domain.Step{
		{ID: 0, Title: "Demo", Description: "Initialize project: Demo", Type: domain.StepCreateFolder, Status: domain.StatusCompleted, Name: "Demo"},
		{ID: 1, Title: "Create index.ts", Description: "Create file at path: src/index.ts", Type: domain.StepCreateFile, Status: domain.StatusCompleted, Code: "console.log(1)", Path: "src/index.ts", Name: "index.ts"},
		{ID: 2, Title: "Run Command", Description: "Execute: npm run dev", Type: domain.StepRunScript, Status: domain.StatusPending, Code: "npm run dev", Name: "Run Command"},
	}
	p.Tree = &domain.Tree{Items: []*domain.FileItem{{
		Name: "src", Path: "/src", Type: domain.FileTypeFolder,
		Children: []*domain.FileItem{{
			Name: "index.ts", Path: "/src/index.ts", Type: domain.FileTypeFile, Content: "console.log(1)",
		}},
	}}}
	return p
}
