package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/formtree/internal/adapters/file"
	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.FormStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunFormStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_WritesReadableJSON(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	doc := domain.NewDocument()
	doc.Code = "x = 1"
	require.NoError(t, store.Save(ctx, "signup", doc))

	data, err := os.ReadFile(filepath.Join(dir, "signup.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"feeds":[],"scripts":[],"code":"x = 1","form":[]}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should be left behind")
}

func TestFileStore_RejectsUnsafeIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, store.Save(ctx, id, domain.NewDocument()), id)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	forms, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, forms)
}
