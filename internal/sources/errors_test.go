package sources

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianmaps/catalog-server/internal/config"
)

func TestLoadError_Error(t *testing.T) {
	t.Parallel()

	t.Run("with underlying cause", func(t *testing.T) {
		t.Parallel()

		loadErr := &LoadError{
			Kind:      KindRequestFailed,
			GroupName: "suburbs",
			Err:       errors.New("connection refused"),
		}

		assert.Equal(t, `group "suburbs": request_failed: connection refused`, loadErr.Error())
	})

	t.Run("without underlying cause", func(t *testing.T) {
		t.Parallel()

		loadErr := &LoadError{
			Kind:      KindInvalidResponseShape,
			GroupName: "suburbs",
		}

		assert.Equal(t, `group "suburbs": invalid_response_shape`, loadErr.Error())
	})
}

func TestLoadError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	loadErr := newRequestFailedError("suburbs", config.SupportConfig{Email: "help@example.org"}, cause)

	require.ErrorIs(t, loadErr, cause)
}

func TestNewInvalidShapeError(t *testing.T) {
	t.Parallel()

	support := config.SupportConfig{Email: "help@example.org", AppName: "Meridian Maps"}
	cause := errors.New("discriminant none")

	loadErr := newInvalidShapeError("suburbs", support, cause)

	assert.Equal(t, KindInvalidResponseShape, loadErr.Kind)
	assert.Equal(t, "suburbs", loadErr.GroupName)
	assert.Equal(t, "Invalid WFS server", loadErr.Title)
	assert.Contains(t, loadErr.Message, "not appear to be a valid GeoJSON feature collection")
	assert.Contains(t, loadErr.Message, "<p>If you entered the link manually, please verify that the link is correct.</p>")
	assert.Contains(t, loadErr.Message, `<a href="mailto:help@example.org">help@example.org</a>`)
}

func TestNewRequestFailedError(t *testing.T) {
	t.Parallel()

	t.Run("names the configured application", func(t *testing.T) {
		t.Parallel()

		support := config.SupportConfig{Email: "help@example.org", AppName: "Meridian Maps"}

		loadErr := newRequestFailedError("suburbs", support, errors.New("HTTP 503"))

		assert.Equal(t, KindRequestFailed, loadErr.Kind)
		assert.Equal(t, "Group is not available", loadErr.Title)
		assert.Contains(t, loadErr.Message, `<a href="https://enable-cors.org/" target="_blank">CORS</a>`)
		assert.Contains(t, loadErr.Message, "contact the Meridian Maps team")
		assert.Contains(t, loadErr.Message, "proxied by Meridian Maps itself")
		assert.Contains(t, loadErr.Message, `<a href="mailto:help@example.org">help@example.org</a>`)
	})

	t.Run("falls back to the generic application name", func(t *testing.T) {
		t.Parallel()

		support := config.SupportConfig{Email: "help@example.org"}

		loadErr := newRequestFailedError("suburbs", support, errors.New("HTTP 503"))

		assert.Contains(t, loadErr.Message, "contact the this application team")
	})
}
