// Package status provides load status tracking and persistence for catalog
// groups.
package status

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the per-group status file
	StatusFileName = "status.yaml"
)

// StatusPersistence defines the interface for load status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the load status for a specific group
	SaveStatus(ctx context.Context, groupName string, status *LoadStatus) error

	// LoadStatus loads the stored status for a specific group.
	// Returns an empty LoadStatus if the file doesn't exist (first run)
	LoadStatus(ctx context.Context, groupName string) (*LoadStatus, error)

	// LoadAllStatus loads the stored status for every group found on disk
	LoadAllStatus(ctx context.Context) (map[string]*LoadStatus, error)
}

// fileStatusPersistence implements StatusPersistence using the local
// filesystem, one directory per group under basePath
type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a new file-based status persistence.
// basePath is the base directory where per-group status files are stored.
func NewFileStatusPersistence(basePath string) StatusPersistence {
	return &fileStatusPersistence{
		basePath: basePath,
	}
}

// SaveStatus saves the load status to a YAML file in a group-specific
// directory
func (f *fileStatusPersistence) SaveStatus(_ context.Context, groupName string, status *LoadStatus) error {
	groupDir := filepath.Join(f.basePath, groupName)
	if err := os.MkdirAll(groupDir, 0750); err != nil {
		return fmt.Errorf("failed to create status directory for group '%s': %w", groupName, err)
	}

	filePath := filepath.Join(groupDir, StatusFileName)

	data, err := yaml.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status data for group '%s': %w", groupName, err)
	}

	// Write-then-rename keeps a crashed save from leaving a torn file behind
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file for group '%s': %w", groupName, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file for group '%s': %w", groupName, err)
	}

	return nil
}

// LoadStatus loads the stored status from the group's YAML file.
// Returns an empty LoadStatus if the file doesn't exist.
func (f *fileStatusPersistence) LoadStatus(_ context.Context, groupName string) (*LoadStatus, error) {
	filePath := filepath.Join(f.basePath, groupName, StatusFileName)

	// #nosec G304 -- filePath is built from the base path and a validated group name
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// First run for this group
			return &LoadStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file for group '%s': %w", groupName, err)
	}

	var status LoadStatus
	if err := yaml.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data for group '%s': %w", groupName, err)
	}

	return &status, nil
}

// LoadAllStatus loads the stored status for every group directory under the
// base path
func (f *fileStatusPersistence) LoadAllStatus(ctx context.Context) (map[string]*LoadStatus, error) {
	result := make(map[string]*LoadStatus)

	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing persisted yet
			return result, nil
		}
		return nil, fmt.Errorf("failed to read status directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		groupName := entry.Name()
		status, err := f.LoadStatus(ctx, groupName)
		if err != nil {
			// Skip unreadable entries so one bad file does not hide the
			// rest of the groups
			continue
		}

		result[groupName] = status
	}

	return result, nil
}
