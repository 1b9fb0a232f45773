package sources

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/config"
)

// staticSourceHandler materializes groups declared inline in the server
// configuration
type staticSourceHandler struct{}

// NewStaticSourceHandler creates a new static source handler
func NewStaticSourceHandler() SourceHandler {
	return &staticSourceHandler{}
}

// Validate validates the static source configuration
func (*staticSourceHandler) Validate(groupCfg *config.GroupConfig) error {
	if groupCfg == nil {
		return fmt.Errorf("group configuration cannot be nil")
	}

	if groupCfg.Static == nil {
		return fmt.Errorf("static configuration is required")
	}

	if groupCfg.Static.Members == nil {
		return fmt.Errorf("static members cannot be nil")
	}

	return nil
}

// FetchGroup builds the group from the inline member declarations
func (h *staticSourceHandler) FetchGroup(_ context.Context, groupCfg *config.GroupConfig) (*FetchResult, error) {
	data, hash, err := h.encodeMembers(groupCfg)
	if err != nil {
		return nil, err
	}

	members, err := catalog.DecodeMembers(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}

	group := &catalog.Group{Name: groupCfg.Name, Description: groupCfg.Description}
	for _, m := range members {
		group.Add(m)
	}

	return NewFetchResult(group, hash, FormatStatic), nil
}

// CurrentHash hashes the canonical encoding of the inline members. Static
// groups only change when the configuration changes.
func (h *staticSourceHandler) CurrentHash(_ context.Context, groupCfg *config.GroupConfig) (string, error) {
	_, hash, err := h.encodeMembers(groupCfg)
	if err != nil {
		return "", err
	}
	return hash, nil
}

// encodeMembers renders the member declarations to canonical JSON and hashes
// it. Map keys marshal sorted, so the hash is stable across restarts.
func (h *staticSourceHandler) encodeMembers(groupCfg *config.GroupConfig) ([]byte, string, error) {
	if err := h.Validate(groupCfg); err != nil {
		return nil, "", fmt.Errorf("group validation failed: %w", err)
	}

	data, err := json.Marshal(groupCfg.Static.Members)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode members: %w", err)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	return data, hash, nil
}
