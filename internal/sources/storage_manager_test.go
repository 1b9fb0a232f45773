package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridianmaps/catalog-server/internal/catalog"
)

func testSnapshotCatalog() *catalog.Catalog {
	parks := catalog.NewGroup("Parks")
	parks.Add(catalog.NewItem("Royal", "https://example.org/parks/royal"))

	suburbs := catalog.NewGroup("Suburbs")
	bondi := catalog.NewItem("Bondi", "https://example.org/suburbs/bondi")
	bondi.Extra = map[string]any{"opacity": 0.8}
	suburbs.Add(bondi)
	suburbs.Add(parks)

	cat := catalog.NewCatalog("Meridian Maps")
	cat.ReplaceGroup(suburbs)
	return cat
}

func TestFileStorageManager_StoreAndGet(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	manager := NewFileStorageManager(tmpDir)
	require.NotNil(t, manager)

	cat := testSnapshotCatalog()

	err := manager.Store(t.Context(), cat)
	require.NoError(t, err)

	// Verify the snapshot file was created
	_, err = os.Stat(filepath.Join(tmpDir, CatalogFileName))
	require.NoError(t, err)

	retrieved, err := manager.Get(t.Context())
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	require.Equal(t, "Meridian Maps", retrieved.Name)
	require.True(t, retrieved.LastUpdated.Equal(cat.LastUpdated))

	suburbs, ok := retrieved.Group("Suburbs")
	require.True(t, ok)
	require.Len(t, suburbs.Members, 2)
	require.Equal(t, "Bondi", suburbs.Members[0].MemberName())

	bondi, ok := suburbs.Members[0].(*catalog.Item)
	require.True(t, ok)
	require.Equal(t, "https://example.org/suburbs/bondi", bondi.URL)
	require.Equal(t, 0.8, bondi.Extra["opacity"])

	parks, ok := suburbs.ChildGroup("Parks")
	require.True(t, ok)
	require.Len(t, parks.Members, 1)
	require.Equal(t, "Royal", parks.Members[0].MemberName())
}

func TestFileStorageManager_Store_Overwrite(t *testing.T) {
	t.Parallel()

	manager := NewFileStorageManager(t.TempDir())

	err := manager.Store(t.Context(), testSnapshotCatalog())
	require.NoError(t, err)

	replacement := catalog.NewCatalog("Meridian Maps")
	coast := catalog.NewGroup("Coastline")
	coast.Add(catalog.NewItem("Bondi Beach", "https://example.org/coast/bondi"))
	replacement.ReplaceGroup(coast)

	err = manager.Store(t.Context(), replacement)
	require.NoError(t, err)

	retrieved, err := manager.Get(t.Context())
	require.NoError(t, err)
	require.Len(t, retrieved.Groups, 1)
	require.Equal(t, "Coastline", retrieved.Groups[0].Name)
}

func TestFileStorageManager_Store_CreatesDirectory(t *testing.T) {
	t.Parallel()

	basePath := filepath.Join(t.TempDir(), "nested", "data")
	manager := NewFileStorageManager(basePath)

	err := manager.Store(t.Context(), testSnapshotCatalog())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(basePath, CatalogFileName))
	require.NoError(t, err)
}

func TestFileStorageManager_Get_NotFound(t *testing.T) {
	t.Parallel()

	manager := NewFileStorageManager(t.TempDir())

	retrieved, err := manager.Get(t.Context())

	require.Error(t, err)
	require.Nil(t, retrieved)
	require.Contains(t, err.Error(), "catalog snapshot not found")
}

func TestFileStorageManager_Get_CorruptSnapshot(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, CatalogFileName), []byte("not json"), 0600)
	require.NoError(t, err)

	manager := NewFileStorageManager(tmpDir)

	retrieved, err := manager.Get(t.Context())

	require.Error(t, err)
	require.Nil(t, retrieved)
	require.Contains(t, err.Error(), "failed to unmarshal catalog snapshot")
}

func TestFileStorageManager_Delete(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	manager := NewFileStorageManager(tmpDir)

	err := manager.Store(t.Context(), testSnapshotCatalog())
	require.NoError(t, err)

	err = manager.Delete(t.Context())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(tmpDir, CatalogFileName))
	require.True(t, os.IsNotExist(err))
}

func TestFileStorageManager_Delete_NonExistent(t *testing.T) {
	t.Parallel()

	manager := NewFileStorageManager(t.TempDir())

	// Deleting a snapshot that was never written is not an error
	err := manager.Delete(t.Context())
	require.NoError(t, err)
}
