package geojson

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCollection(t *testing.T) {
	t.Parallel()

	t.Run("valid collection", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{
			"type": "FeatureCollection",
			"features": [
				{"id": "f1", "properties": {"NAME": "Bondi", "STATE": "NSW"}},
				{"id": 42, "properties": {"NAME": "Manly"}},
				{"properties": null}
			]
		}`)

		col, err := DecodeCollection(body)
		require.NoError(t, err)
		assert.Equal(t, "FeatureCollection", col.Type)
		require.Len(t, col.Features, 3)
		assert.Equal(t, "f1", col.Features[0].ID.String())
		assert.Equal(t, "42", col.Features[1].ID.String(), "numeric ids normalize to strings")
		assert.Empty(t, col.Features[2].ID.String())
	})

	t.Run("empty feature array is valid", func(t *testing.T) {
		t.Parallel()

		col, err := DecodeCollection([]byte(`{"type":"FeatureCollection","features":[]}`))
		require.NoError(t, err)
		assert.Empty(t, col.Features)
	})

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "wrong discriminant", body: `{"type":"FeatureList","features":[]}`, wantErr: ErrNotFeatureCollection},
		{name: "missing discriminant", body: `{"features":[]}`, wantErr: ErrNotFeatureCollection},
		{name: "null document", body: `null`, wantErr: ErrNotFeatureCollection},
		{name: "non-object document", body: `5`, wantErr: ErrNotFeatureCollection},
		{name: "array document", body: `[1,2]`, wantErr: ErrNotFeatureCollection},
		{name: "missing features", body: `{"type":"FeatureCollection"}`, wantErr: ErrMissingFeatures},
		{name: "null features", body: `{"type":"FeatureCollection","features":null}`, wantErr: ErrMissingFeatures},
		{name: "features not an array", body: `{"type":"FeatureCollection","features":"nope"}`, wantErr: ErrInvalidFeatures},
		{name: "feature not an object", body: `{"type":"FeatureCollection","features":[5]}`, wantErr: ErrInvalidFeatures},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			col, err := DecodeCollection([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, col, "a shape violation never yields features")
		})
	}

	t.Run("malformed JSON is not a shape error", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeCollection([]byte(`{"type": "FeatureCollection",`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFeatureCollection)
		assert.NotErrorIs(t, err, ErrMissingFeatures)
		assert.NotErrorIs(t, err, ErrInvalidFeatures)

		var syntaxErr *json.SyntaxError
		assert.True(t, errors.As(err, &syntaxErr), "parse failures surface the json error")
	})
}

func TestStringProperty(t *testing.T) {
	t.Parallel()

	feature := &Feature{Properties: map[string]any{
		"NAME":     "Bondi",
		"POP":      float64(12500),
		"DENSITY":  42.5,
		"COASTAL":  true,
		"EMPTY":    nil,
		"GEOM_REF": []any{1, 2},
	}}

	tests := []struct {
		name   string
		key    string
		want   string
		wantOK bool
	}{
		{name: "string value", key: "NAME", want: "Bondi", wantOK: true},
		{name: "integral number renders without decimal point", key: "POP", want: "12500", wantOK: true},
		{name: "fractional number", key: "DENSITY", want: "42.5", wantOK: true},
		{name: "boolean", key: "COASTAL", want: "true", wantOK: true},
		{name: "null value", key: "EMPTY", wantOK: false},
		{name: "absent key", key: "MISSING", wantOK: false},
		{name: "non-scalar value", key: "GEOM_REF", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := feature.StringProperty(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringPropertyNilProperties(t *testing.T) {
	t.Parallel()

	feature := &Feature{}
	_, ok := feature.StringProperty("NAME")
	assert.False(t, ok)
}
