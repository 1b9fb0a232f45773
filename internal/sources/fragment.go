package sources

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tailscale/hujson"
	"sigs.k8s.io/yaml"

	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/config"
)

//go:embed schemas/fragment.schema.json
var fragmentSchemaJSON []byte

// maxSupportedSchemaMajor is the newest fragment layout generation this
// server reads. Fragments declaring a newer major version are rejected
// rather than half-parsed.
const maxSupportedSchemaMajor = 1

// Fragment is a catalog subtree authored outside the server and loaded from
// file or git sources.
type Fragment struct {
	// SchemaVersion is the semantic version of the fragment layout
	SchemaVersion string

	// Description is optional display text for the produced group
	Description string

	// Members holds the decoded members in document order
	Members []catalog.Member
}

// Group materializes the fragment as a named catalog group. The description
// falls back to the fragment's own when the configuration carries none.
func (f *Fragment) Group(name, description string) *catalog.Group {
	if description == "" {
		description = f.Description
	}
	group := &catalog.Group{Name: name, Description: description}
	for _, m := range f.Members {
		group.Add(m)
	}
	return group
}

// FragmentValidator is an interface for validating raw fragment documents
type FragmentValidator interface {
	// ValidateFragment validates raw data in the given document format and
	// returns the parsed fragment
	ValidateFragment(data []byte, format string) (*Fragment, error)
}

// DefaultFragmentValidator is the default implementation of FragmentValidator
type DefaultFragmentValidator struct {
	compileOnce sync.Once
	schema      *jsonschema.Schema
	compileErr  error
}

// NewFragmentValidator creates a new default fragment validator
func NewFragmentValidator() FragmentValidator {
	return &DefaultFragmentValidator{}
}

// ValidateFragment validates raw data in the given document format and
// returns the parsed fragment
func (v *DefaultFragmentValidator) ValidateFragment(data []byte, format string) (*Fragment, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}

	jsonData, err := standardizeDocument(data, format)
	if err != nil {
		return nil, err
	}

	if err := v.validateSchema(jsonData); err != nil {
		return nil, err
	}

	return parseFragment(jsonData)
}

// standardizeDocument converts the supported authoring formats to plain JSON
func standardizeDocument(data []byte, format string) ([]byte, error) {
	switch format {
	case config.FileFormatJSON, "":
		return data, nil
	case config.FileFormatJWCC:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("invalid JWCC document: %w", err)
		}
		return standardized, nil
	case config.FileFormatYAML:
		jsonData, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("invalid YAML document: %w", err)
		}
		return jsonData, nil
	default:
		return nil, fmt.Errorf("unsupported document format: %s", format)
	}
}

func (v *DefaultFragmentValidator) validateSchema(jsonData []byte) error {
	schema, err := v.compiledSchema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("invalid JSON document: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("fragment schema validation failed: %w", err)
	}
	return nil
}

// compiledSchema compiles the embedded fragment schema on first use
func (v *DefaultFragmentValidator) compiledSchema() (*jsonschema.Schema, error) {
	v.compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(fragmentSchemaJSON))
		if err != nil {
			v.compileErr = fmt.Errorf("failed to parse fragment schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("fragment.schema.json", doc); err != nil {
			v.compileErr = fmt.Errorf("failed to register fragment schema: %w", err)
			return
		}

		v.schema, v.compileErr = compiler.Compile("fragment.schema.json")
	})
	return v.schema, v.compileErr
}

func parseFragment(jsonData []byte) (*Fragment, error) {
	var doc struct {
		SchemaVersion string          `json:"schemaVersion"`
		Description   string          `json:"description"`
		Members       json.RawMessage `json:"members"`
	}
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}

	if err := checkSchemaVersion(doc.SchemaVersion); err != nil {
		return nil, err
	}

	members, err := catalog.DecodeMembers(doc.Members)
	if err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}

	return &Fragment{
		SchemaVersion: doc.SchemaVersion,
		Description:   doc.Description,
		Members:       members,
	}, nil
}

// checkSchemaVersion gates loading on the fragment's declared layout
// generation. Minor and patch revisions within a supported major are
// accepted.
func checkSchemaVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid schemaVersion %q: %w", version, err)
	}

	if v.Major() < 1 || v.Major() > maxSupportedSchemaMajor {
		return fmt.Errorf("unsupported schemaVersion %s: newest supported generation is %d",
			version, maxSupportedSchemaMajor)
	}
	return nil
}
