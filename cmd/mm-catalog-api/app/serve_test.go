package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommandFlags(t *testing.T) {
	for _, name := range []string{"address", "config", "data-dir"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), "flag %s should be registered", name)
	}
}

func TestServeCommandBadConfig(t *testing.T) {
	// A valid configuration would start a real server, so only the
	// fail-fast paths are exercised here.
	t.Run("missing config file", func(t *testing.T) {
		_, err := executeCommand(serveCmd, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load configuration")
	})

	t.Run("invalid config file", func(t *testing.T) {
		path := writeConfigFile(t, "groups: []")
		_, err := executeCommand(serveCmd, "--config", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one group")
	})
}
