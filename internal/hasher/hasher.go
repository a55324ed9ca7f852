// Package hasher implements C4: trailing-1MiB and full SHA-256 digests
// of a file, consulting and updating the C1 hash cache so repeated
// scans never re-read unchanged bytes.
//
// Grounded on the teacher's files.go (copyFileWithHash's
// io.MultiWriter streaming idiom) and main.go's getFileHash, adapted to
// compute either a trailing or full digest and to go through the
// cache instead of always re-reading.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/user/photodupe/internal/hashcache"
	"github.com/user/photodupe/internal/model"
	"github.com/user/photodupe/internal/scanerr"
)

// TrailingSize is the number of trailing bytes digested by
// TrailingHash, per spec §4.4.
const TrailingSize = 1 << 20 // 1 MiB

// copyBufferSize is the chunk size used streaming the full-file hash.
const copyBufferSize = 1 << 20

// Hasher computes digests for a RawFile, using cache as the backing
// C1 store.
type Hasher struct {
	cache *hashcache.Cache
}

// New builds a Hasher backed by cache.
func New(cache *hashcache.Cache) *Hasher {
	return &Hasher{cache: cache}
}

// TrailingHash returns the SHA-256 hex digest of the last
// min(size, 1MiB) bytes of file, consulting and updating the cache.
func (h *Hasher) TrailingHash(file model.RawFile) (string, error) {
	if file.IsCloudPlaceholder {
		return "", scanerr.New(scanerr.CloudPlaceholder, "TrailingHash", file.Path, nil)
	}
	if cached, ok := h.cache.Lookup(file.Path, file.Size, file.ModifiedAt); ok && cached.TrailingHash != "" {
		return cached.TrailingHash, nil
	}

	digest, err := trailingDigest(file.Path, file.Size)
	if err != nil {
		return "", scanerr.New(scanerr.IoError, "TrailingHash", file.Path, err)
	}
	if err := h.cache.Store(file.Path, file.Size, file.ModifiedAt, digest, ""); err != nil {
		return "", err
	}
	return digest, nil
}

// FullHash returns the full-file SHA-256 hex digest, consulting and
// updating the cache.
func (h *Hasher) FullHash(file model.RawFile) (string, error) {
	if file.IsCloudPlaceholder {
		return "", scanerr.New(scanerr.CloudPlaceholder, "FullHash", file.Path, nil)
	}
	if cached, ok := h.cache.Lookup(file.Path, file.Size, file.ModifiedAt); ok && cached.FullHash != "" {
		return cached.FullHash, nil
	}

	digest, err := fullDigest(file.Path)
	if err != nil {
		return "", scanerr.New(scanerr.IoError, "FullHash", file.Path, err)
	}
	if err := h.cache.Store(file.Path, file.Size, file.ModifiedAt, "", digest); err != nil {
		return "", err
	}
	return digest, nil
}

// trailingDigest hashes the last min(size, TrailingSize) bytes of
// path with a single positioned read, per spec §4.4.
func trailingDigest(path string, size uint64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	readSize := int64(size)
	if readSize > TrailingSize {
		readSize = TrailingSize
	}
	offset := int64(size) - readSize
	if offset < 0 {
		offset = 0
	}

	buf := make([]byte, readSize)
	if readSize > 0 {
		if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
			return "", err
		}
	}

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

// fullDigest streams the entire file through SHA-256 in buffered
// chunks, as the teacher's copyFileWithHash does while copying.
func fullDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
