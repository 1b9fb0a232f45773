package httpclient

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readCapped is exercised with small limits here; the 100MB production cap
// itself is covered by the Content-Length check in the client tests.
func TestReadCapped(t *testing.T) {
	t.Parallel()

	t.Run("reads up to the limit", func(t *testing.T) {
		t.Parallel()

		body, err := readCapped(strings.NewReader("12345"), 5)
		require.NoError(t, err)
		assert.Equal(t, []byte("12345"), body)
	})

	t.Run("fails instead of truncating", func(t *testing.T) {
		t.Parallel()

		_, err := readCapped(strings.NewReader("123456"), 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds maximum allowed size")
	})
}
