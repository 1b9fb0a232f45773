package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs a command with the given arguments and captures its output
func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	// Subtests share the command's flag state, so they run in order and
	// set the format flag explicitly.
	t.Run("text output", func(t *testing.T) {
		out, err := executeCommand(versionCmd, "--format=")
		require.NoError(t, err)
		assert.Contains(t, out, "mm-catalog-api")
		assert.Contains(t, out, "commit")
	})

	t.Run("json output", func(t *testing.T) {
		out, err := executeCommand(versionCmd, "--format", "json")
		require.NoError(t, err)

		var info map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Contains(t, info, "version")
		assert.Contains(t, info, "commit")
		assert.Contains(t, info, "build_date")
		assert.Contains(t, info, "go_version")
		assert.Contains(t, info, "platform")
	})
}
