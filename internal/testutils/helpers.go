package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// CatalogRepo initializes a Loam repository in a fresh temp dir and writes
// the given control documents into it, keyed by path relative to the root
// ("basic/button.md", "radio.json"). Folders are created as needed.
// It returns the absolute catalog dir and the repository.
func CatalogRepo(t *testing.T, controls map[string]string, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "catalog dir")

	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "init catalog repo")

	for name, content := range controls {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "control folder for %s", name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "control document %s", name)
	}
	return dir, repo
}
