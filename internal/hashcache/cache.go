// Package hashcache implements C1: a persistent {path -> (size, mtime,
// trailing_hash?, full_hash?)} store, keyed by absolute path and
// invalidated whenever size or mtime no longer match the filesystem.
//
// Grounded on the teacher's database.go: same modernc.org/sqlite
// driver, same "open once, serialize writes with a mutex" shape as
// BatchInserter, generalized from an append-only files table to an
// upsert-on-conflict cache table per spec §4.1.
package hashcache

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/user/photodupe/internal/applog"
	"github.com/user/photodupe/internal/model"
	"github.com/user/photodupe/internal/scanerr"
)

const schema = `
CREATE TABLE IF NOT EXISTS file_hashes (
	path TEXT PRIMARY KEY,
	size INTEGER NOT NULL,
	modified_at INTEGER NOT NULL,
	trailing_hash TEXT,
	full_hash TEXT
);
`

// Lookup is the result of a cache read: the stored hashes, when the
// row's (size, modified_at) matched the query.
type Lookup struct {
	TrailingHash string
	FullHash     string
}

// Cache is the persistent hash cache. A single writer mutex serializes
// stores; many goroutines may call Lookup concurrently.
type Cache struct {
	db       *sql.DB // nil when degraded to the in-memory fallback
	mem      map[string]model.HashCacheEntry
	mu       sync.Mutex
	log      *applog.Logger
	inMemory bool
}

// Open opens (or creates) the SQLite-backed cache at dbPath. If the
// database cannot be opened, Open degrades gracefully to an in-memory
// map so scans still complete (spec §4.1, CacheUnavailable in §7), and
// the degradation is logged exactly once.
func Open(dbPath string, log *applog.Logger) *Cache {
	if log == nil {
		log = applog.Nop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err == nil {
		_, err = db.Exec(schema)
	}
	if err != nil {
		log.Warn("hash cache unavailable, falling back to in-memory",
			applog.String("path", dbPath), applog.Err(err))
		if db != nil {
			db.Close()
		}
		return &Cache{mem: make(map[string]model.HashCacheEntry), log: log, inMemory: true}
	}
	return &Cache{db: db, log: log}
}

// Close releases the underlying database handle, if any.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// InMemory reports whether this cache degraded to the in-memory
// fallback (CacheUnavailable occurred at Open).
func (c *Cache) InMemory() bool { return c.inMemory }

// Lookup returns the stored hashes for path only when size and
// modifiedAt match exactly; any mismatch is a miss, and the stale row
// is left in place for Store to overwrite (spec Invariant 5).
func (c *Cache) Lookup(path string, size uint64, modifiedAt int64) (Lookup, bool) {
	if c.db == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		entry, ok := c.mem[path]
		if !ok || entry.Size != size || entry.ModifiedAt != modifiedAt {
			return Lookup{}, false
		}
		return Lookup{TrailingHash: entry.TrailingHash, FullHash: entry.FullHash}, true
	}

	var storedSize uint64
	var storedMtime int64
	var trailing, full sql.NullString
	row := c.db.QueryRow(
		`SELECT size, modified_at, trailing_hash, full_hash FROM file_hashes WHERE path = ?`, path)
	if err := row.Scan(&storedSize, &storedMtime, &trailing, &full); err != nil {
		return Lookup{}, false
	}
	if storedSize != size || storedMtime != modifiedAt {
		return Lookup{}, false
	}
	return Lookup{TrailingHash: trailing.String, FullHash: full.String}, true
}

// Store upserts path's cache row: a present hash overwrites, an empty
// one leaves the existing column alone (so storing a full hash later
// never erases a previously stored trailing hash).
func (c *Cache) Store(path string, size uint64, modifiedAt int64, trailingHash, fullHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		existing := c.mem[path]
		if existing.Path != path || existing.Size != size || existing.ModifiedAt != modifiedAt {
			existing = model.HashCacheEntry{Path: path, Size: size, ModifiedAt: modifiedAt}
		}
		if trailingHash != "" {
			existing.TrailingHash = trailingHash
		}
		if fullHash != "" {
			existing.FullHash = fullHash
		}
		c.mem[path] = existing
		return nil
	}

	_, err := c.db.Exec(`
		INSERT INTO file_hashes (path, size, modified_at, trailing_hash, full_hash)
		VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			modified_at = excluded.modified_at,
			trailing_hash = CASE
				WHEN excluded.size != file_hashes.size OR excluded.modified_at != file_hashes.modified_at
					THEN excluded.trailing_hash
				WHEN excluded.trailing_hash IS NOT NULL THEN excluded.trailing_hash
				ELSE file_hashes.trailing_hash
			END,
			full_hash = CASE
				WHEN excluded.size != file_hashes.size OR excluded.modified_at != file_hashes.modified_at
					THEN excluded.full_hash
				WHEN excluded.full_hash IS NOT NULL THEN excluded.full_hash
				ELSE file_hashes.full_hash
			END
	`, path, size, modifiedAt, trailingHash, fullHash)
	if err != nil {
		return scanerr.New(scanerr.IoError, "hashcache.Store", path, fmt.Errorf("%w", err))
	}
	return nil
}
