package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/forge/pkg/adapters/file"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunProjectStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	store := file.New(dir)
	ctx := context.Background()

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "missing directory lists nothing")

	require.NoError(t, store.Save(ctx, "demo", domain.NewProject("demo", "")))
	_, err = os.Stat(filepath.Join(dir, "demo.json"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileStore_RejectsBadIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", ".."} {
		assert.Error(t, store.Save(ctx, id, domain.NewProject(id, "")), id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
	}
}
