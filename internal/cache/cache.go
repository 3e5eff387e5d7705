// Package cache prunes leftovers of interrupted installs from the temp directory.
package cache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/anisan-cli/modhost/filesystem"
	"github.com/anisan-cli/modhost/log"
)

// TTL is the age after which a downloaded archive or unpacked directory is
// considered abandoned. Installs in progress are far younger.
const TTL = 24 * time.Hour

// CollectGarbage removes the direct entries of dir older than ttl and
// returns how many were removed.
func CollectGarbage(dir string, ttl time.Duration) (int, error) {
	fs := filesystem.API()

	entries, err := fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var removed int
	for _, entry := range entries {
		if time.Since(entry.ModTime()) <= ttl {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := fs.RemoveAll(path); err != nil {
			log.Warnf("remove stale %s: %v", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Infof("removed %d stale entries from %s", removed, dir)
	}
	return removed, nil
}
