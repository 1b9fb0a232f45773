package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/sources"
)

// storeSnapshot writes a two-item catalog snapshot into dir
func storeSnapshot(t *testing.T, dir string) {
	t.Helper()

	cat := catalog.NewCatalog("meridian")
	group := catalog.NewGroup("localities")
	group.Add(catalog.NewItem("Sydney", "https://wfs.example.com/features/1"))
	group.Add(catalog.NewItem("Melbourne", "https://wfs.example.com/features/2"))
	cat.ReplaceGroup(group)

	require.NoError(t, sources.NewFileStorageManager(dir).Store(context.Background(), cat))
}

func TestInspectCommand(t *testing.T) {
	// Subtests share the command's flag state, so they run in order and set
	// both flags explicitly.
	dir := t.TempDir()
	storeSnapshot(t, dir)

	t.Run("prints the full snapshot", func(t *testing.T) {
		out, err := executeCommand(inspectCmd, "--data-dir", dir, "--query", "")
		require.NoError(t, err)

		var snapshot map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &snapshot))
		assert.Equal(t, "meridian", snapshot["name"])
	})

	t.Run("string query prints the bare value", func(t *testing.T) {
		out, err := executeCommand(inspectCmd, "--data-dir", dir, "--query", "groups.0.name")
		require.NoError(t, err)
		assert.Equal(t, "localities\n", out)
	})

	t.Run("non-string query prints raw JSON", func(t *testing.T) {
		out, err := executeCommand(inspectCmd, "--data-dir", dir, "--query", "groups.0.members.#")
		require.NoError(t, err)
		assert.Equal(t, "2\n", out)
	})

	t.Run("query matching nothing fails", func(t *testing.T) {
		_, err := executeCommand(inspectCmd, "--data-dir", dir, "--query", "groups.7.name")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "matched nothing")
	})

	t.Run("missing snapshot fails", func(t *testing.T) {
		_, err := executeCommand(inspectCmd, "--data-dir", t.TempDir(), "--query", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read catalog snapshot")
	})
}
