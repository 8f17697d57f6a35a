package cache

import (
	"fmt"

	"github.com/cockroachdb/pebble/v2"

	"github.com/crateindex/exportdb/internal/xerrors"
)

// PageCache persists the built index (primary/secondary key maps and
// dangling foreign-key records, but not the warning log) for a database
// file across process runs, keyed by the source
// file's path, size and modification time so a changed file is never
// served stale results. Building the index is the expensive part of
// opening a large collection; this cache lets a second open skip it.
type PageCache struct {
	db *pebble.DB
}

// OpenPageCache opens (creating if necessary) a pebble store at dir.
func OpenPageCache(dir string) (*PageCache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, xerrors.IO(dir, err)
	}
	return &PageCache{db: db}, nil
}

// Close releases the underlying pebble store.
func (c *PageCache) Close() error {
	return c.db.Close()
}

// key derives a cache key from a source file's identity. A cache entry for
// a stale (path, size, mtime) triple is never read, and simply becomes
// unreachable garbage the next time the same path resolves to a new key.
func key(path string, size int64, mtimeUnixNano int64) []byte {
	return []byte(fmt.Sprintf("index:%s:%d:%d", path, size, mtimeUnixNano))
}

// Get returns the cached index blob for the given file identity, if any.
func (c *PageCache) Get(path string, size, mtimeUnixNano int64) ([]byte, bool, error) {
	v, closer, err := c.db.Get(key(path, size, mtimeUnixNano))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, xerrors.IO(path, err)
	}
	defer closer.Close()

	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Put stores an index blob under the given file identity.
func (c *PageCache) Put(path string, size, mtimeUnixNano int64, blob []byte) error {
	if err := c.db.Set(key(path, size, mtimeUnixNano), blob, pebble.Sync); err != nil {
		return xerrors.IO(path, err)
	}
	return nil
}
