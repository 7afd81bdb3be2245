package storage

import (
	"fmt"
	"path/filepath"

	"github.com/valter-silva-au/goal-board/pkg/models"
)

// Default locations under the base path.
const (
	DefaultSnapshotDir = ".goals"
	DefaultSQLiteFile  = ".goals.db"
)

// Open returns the KVStore for backend. An empty path selects the default
// location under basePath.
func Open(backend models.StorageBackend, basePath, path string) (KVStore, error) {
	switch backend {
	case models.StorageMemory:
		return NewMemoryKV(), nil
	case models.StorageSQLite:
		if path == "" {
			path = filepath.Join(basePath, DefaultSQLiteFile)
		}
		return OpenSQLiteKV(path)
	case models.StorageFile, "":
		if path == "" {
			path = filepath.Join(basePath, DefaultSnapshotDir)
		}
		return NewFileKV(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
