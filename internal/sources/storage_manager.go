package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/meridianmaps/catalog-server/internal/catalog"
)

const (
	// CatalogFileName is the name of the catalog snapshot file
	CatalogFileName = "catalog.json"

	// lockRetryDelay is how often a blocked lock acquisition retries
	lockRetryDelay = 100 * time.Millisecond
)

//go:generate mockgen -destination=mocks/mock_storage_manager.go -package=mocks -source=storage_manager.go StorageManager

// StorageManager defines the interface for catalog snapshot persistence.
// Snapshots serve warm restarts and the inspect command; the live catalog is
// rebuilt from sources regardless.
type StorageManager interface {
	// Store saves an assembled catalog to persistent storage
	Store(ctx context.Context, cat *catalog.Catalog) error

	// Get retrieves and parses the catalog snapshot from persistent storage
	Get(ctx context.Context) (*catalog.Catalog, error)

	// Delete removes the catalog snapshot from persistent storage
	Delete(ctx context.Context) error
}

// fileStorageManager implements StorageManager using the local filesystem.
// The snapshot file is shared with other processes reading it (the inspect
// command in particular), so access goes through an advisory file lock.
type fileStorageManager struct {
	basePath string
}

// NewFileStorageManager creates a new file-based storage manager
func NewFileStorageManager(basePath string) StorageManager {
	return &fileStorageManager{
		basePath: basePath,
	}
}

// Store saves the catalog snapshot to a JSON file
func (f *fileStorageManager) Store(ctx context.Context, cat *catalog.Catalog) error {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(f.basePath, 0750); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	// Marshal with pretty printing for readability
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog snapshot: %w", err)
	}

	fileLock := flock.New(f.lockPath())
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire snapshot lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("snapshot lock is held by another process")
	}
	defer func() { _ = fileLock.Unlock() }()

	filePath := f.snapshotPath()

	// Write to temporary file first for atomic operation
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary snapshot file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, filePath); err != nil {
		// Clean up temp file on error
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}

	return nil
}

// Get retrieves and parses the catalog snapshot from the JSON file
func (f *fileStorageManager) Get(ctx context.Context) (*catalog.Catalog, error) {
	// Probing for a snapshot must not create the lock file in a data
	// directory that does not exist yet.
	if _, err := os.Stat(f.snapshotPath()); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog snapshot not found: %w", err)
		}
		return nil, fmt.Errorf("failed to stat snapshot file: %w", err)
	}

	fileLock := flock.New(f.lockPath())
	locked, err := fileLock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire snapshot lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("snapshot lock is held by another process")
	}
	defer func() { _ = fileLock.Unlock() }()

	//nolint:gosec // File path is internally managed by StorageManager, not user input
	data, err := os.ReadFile(f.snapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog snapshot not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var cat catalog.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog snapshot: %w", err)
	}

	return &cat, nil
}

// Delete removes the catalog snapshot file
func (f *fileStorageManager) Delete(_ context.Context) error {
	if err := os.Remove(f.snapshotPath()); err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, nothing to delete
			return nil
		}
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}

	return nil
}

func (f *fileStorageManager) snapshotPath() string {
	return filepath.Join(f.basePath, CatalogFileName)
}

func (f *fileStorageManager) lockPath() string {
	return f.snapshotPath() + ".lock"
}
