package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/forge/pkg/adapters/memory"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactionMiddleware_MasksMatchingFiles(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewRedactionMiddleware([]string{`(^|/)\.env$`})(underlying)
	ctx := context.Background()

	project := secretProject("r1")
	project.Tree.Items = append(project.Tree.Items, &domain.FileItem{
		Name: "src", Path: "/src", Type: domain.FileTypeFolder,
		Children: []*domain.FileItem{
			{Name: "index.ts", Path: "/src/index.ts", Type: domain.FileTypeFile, Content: "console.log(1)"},
			{Name: ".env", Path: "/src/.env", Type: domain.FileTypeFile, Content: "KEY=x"},
		},
	})
	originalTree := project.Tree

	require.NoError(t, store.Save(ctx, "r1", project))

	// The caller's project is untouched.
	assert.Same(t, originalTree, project.Tree)
	assert.Equal(t, "TOKEN=s3cret", project.Tree.Find("/.env").Content)
	assert.Equal(t, "TOKEN=s3cret", project.Steps[0].Code)

	stored, err := underlying.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, stored.Tree.Find("/.env").Content)
	assert.Equal(t, middleware.Mask, stored.Tree.Find("/src/.env").Content)
	assert.Equal(t, "console.log(1)", stored.Tree.Find("/src/index.ts").Content)
	assert.Equal(t, middleware.Mask, stored.Steps[0].Code)
}

func TestChain_OrderAndPassThrough(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.Chain(underlying,
		middleware.NewRedactionMiddleware([]string{`\.env$`}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "c1", secretProject("c1")))

	loaded, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Tree.Find("/.env").Content, "redaction runs before sealing")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)

	require.NoError(t, store.Delete(ctx, "c1"))
	_, err = store.Load(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
