package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile writes a config fixture and returns its path
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const validConfigYAML = `
catalogName: meridian
support:
  email: gis-team@example.com
  appName: Meridian Maps
refreshPolicy:
  interval: 6h
groups:
  - name: localities
    description: Australian localities
    wfs:
      url: https://wfs.example.com/geoserver/ows
      typeNames: topp:localities
      nameProperty: NAME
      groupByProperty: STATE
    refreshPolicy:
      interval: 1h
  - name: base-layers
    description: Base map layers
    static:
      members:
        - kind: item
          name: Streets
          url: https://tiles.example.com/streets
`

func TestValidateCommand(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		path := writeConfigFile(t, validConfigYAML)

		out, err := executeCommand(validateCmd, "--config", path)
		require.NoError(t, err)

		assert.Contains(t, out, "is valid")
		assert.Contains(t, out, "Catalog:  meridian")

		// Group summary table
		assert.Contains(t, out, "localities")
		assert.Contains(t, out, "wfs")
		assert.Contains(t, out, "https://wfs.example.com/geoserver/ows")
		assert.Contains(t, out, "1h")
		assert.Contains(t, out, "base-layers")
		assert.Contains(t, out, "static")
		assert.Contains(t, out, "1 inline members")
	})

	t.Run("group without policy falls back to default", func(t *testing.T) {
		path := writeConfigFile(t, `
catalogName: meridian
refreshPolicy:
  interval: 6h
groups:
  - name: base-layers
    static:
      members: []
`)

		out, err := executeCommand(validateCmd, "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "6h (default)")
	})

	t.Run("group without any policy is manual", func(t *testing.T) {
		path := writeConfigFile(t, `
catalogName: meridian
groups:
  - name: base-layers
    static:
      members: []
`)

		out, err := executeCommand(validateCmd, "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "manual")
	})

	t.Run("invalid configuration", func(t *testing.T) {
		path := writeConfigFile(t, `
catalogName: meridian
groups:
  - name: base-layers
    static:
      members: []
  - name: base-layers
    static:
      members: []
`)

		_, err := executeCommand(validateCmd, "--config", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate group name")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := executeCommand(validateCmd, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}
