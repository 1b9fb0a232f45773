// Package geojson decodes WFS GetFeature responses into feature collections.
//
// Decoding keeps two failure families apart: a body that is not valid JSON at
// all (a transport-level problem, reported as-is) and a valid JSON document
// of the wrong shape (reported via the sentinel errors below). Callers route
// the two to different user-facing reports.
package geojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Shape violation sentinels, matchable with errors.Is.
var (
	// ErrNotFeatureCollection marks a document whose discriminant is not the
	// literal "FeatureCollection", or that is not a JSON object at all.
	ErrNotFeatureCollection = errors.New("document is not a FeatureCollection")

	// ErrMissingFeatures marks a collection whose features field is absent
	// or null.
	ErrMissingFeatures = errors.New("features field is missing or null")

	// ErrInvalidFeatures marks a features field that is not an array of
	// feature objects.
	ErrInvalidFeatures = errors.New("features field is not a feature array")
)

// FeatureID normalizes string and numeric feature ids to their string form.
type FeatureID string

// UnmarshalJSON accepts both `"id"` and `id` spellings; servers disagree on
// whether feature ids are strings.
func (id *FeatureID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FeatureID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("feature id must be a string or a number: %w", err)
	}
	*id = FeatureID(n.String())
	return nil
}

// String returns the normalized id.
func (id FeatureID) String() string { return string(id) }

// Feature is one record of a feature collection. Geometry is carried opaque;
// nothing in this server interprets coordinates.
type Feature struct {
	ID         FeatureID       `json:"id"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
}

// StringProperty returns the feature's value for the given attribute key,
// normalized to its string form. Numbers render plainly without an exponent.
// The second return is false when the key is absent, the value is null, or
// the value is not a scalar.
func (f *Feature) StringProperty(key string) (string, bool) {
	value, ok := f.Properties[key]
	if !ok || value == nil {
		return "", false
	}
	return formatScalar(value)
}

func formatScalar(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case json.Number:
		return v.String(), true
	default:
		// Arrays and objects are not usable as names or group keys.
		return "", false
	}
}

// FeatureCollection is the decoded GetFeature response.
type FeatureCollection struct {
	Type     string
	Features []Feature
}

// DecodeCollection parses and shape-checks a GetFeature response body.
//
// Malformed JSON surfaces the json package's parse error unchanged. A valid
// document fails with a wrapped ErrNotFeatureCollection, ErrMissingFeatures
// or ErrInvalidFeatures when the shape is wrong. There is no partial
// recovery: a shape violation never yields features.
func DecodeCollection(body []byte) (*FeatureCollection, error) {
	var envelope struct {
		Type     *string         `json:"type"`
		Features json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// Valid JSON, but not an object: a shape problem, not a parse one.
			return nil, fmt.Errorf("%w: got %s", ErrNotFeatureCollection, typeErr.Value)
		}
		return nil, err
	}

	if envelope.Type == nil || *envelope.Type != "FeatureCollection" {
		got := "none"
		if envelope.Type != nil {
			got = strconv.Quote(*envelope.Type)
		}
		return nil, fmt.Errorf("%w: discriminant %s", ErrNotFeatureCollection, got)
	}
	if len(envelope.Features) == 0 || string(envelope.Features) == "null" {
		return nil, ErrMissingFeatures
	}

	var features []Feature
	if err := json.Unmarshal(envelope.Features, &features); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFeatures, err)
	}

	return &FeatureCollection{Type: *envelope.Type, Features: features}, nil
}
