// Package model defines the data types shared across the scan and
// deduplication pipeline: raw filesystem records, collapsed logical
// photos, and the persistent hash-cache row shape.
package model

import "github.com/google/uuid"

// photoNamespace seeds the deterministic UUIDv5 used for LogicalPhoto
// IDs, so the same primary path always yields the same ID across scans.
var photoNamespace = uuid.MustParse("6f6d6761-7068-6f74-6f64-757065000001")

// RelatedKind classifies a file collapsed alongside a LogicalPhoto's
// primary file.
type RelatedKind string

const (
	KindSidecar     RelatedKind = "sidecar"
	KindJPEGPreview RelatedKind = "jpeg_preview"
	KindRAW         RelatedKind = "raw"
)

// RawFile is a single filesystem entry discovered by the Discoverer,
// before any grouping has happened.
type RawFile struct {
	Path               string `json:"path"`
	Name               string `json:"name"`
	Extension          string `json:"extension"` // lower-case, no leading dot
	Directory          string `json:"directory"`
	Size               uint64 `json:"size"`
	ModifiedAt         int64  `json:"modified_at"` // seconds since epoch
	IsCloudPlaceholder bool   `json:"is_cloud_placeholder"`
}

// RelatedFile is a sidecar, preview, or secondary RAW collapsed
// alongside a LogicalPhoto's primary file.
type RelatedFile struct {
	Path string      `json:"path"`
	Name string      `json:"name"`
	Kind RelatedKind `json:"kind"`
}

// LogicalPhoto is the unit the rest of the pipeline operates on: one
// primary image plus whatever sidecars/previews were collapsed with it.
type LogicalPhoto struct {
	ID             string        `json:"id"`
	Primary        RawFile       `json:"primary"`
	Related        []RelatedFile `json:"related"`
	ThumbnailPath  string        `json:"thumbnail_path,omitempty"`
	Size           uint64        `json:"size"`
	ModifiedAt     int64         `json:"modified_at"`
	Hash           string        `json:"hash,omitempty"` // full SHA-256 hex; empty until computed
	IsDuplicate    bool          `json:"is_duplicate"`
	DuplicateOf    string        `json:"duplicate_of,omitempty"` // keeper's ID; empty unless IsDuplicate
	hasDuplicateOf bool
}

// DuplicateOfPtr returns (id, true) when this photo has a keeper
// assigned, distinguishing "no keeper yet" from an empty-string ID.
func (p *LogicalPhoto) DuplicateOfPtr() (string, bool) {
	return p.DuplicateOf, p.hasDuplicateOf
}

// SetDuplicateOf marks this photo as belonging to the given keeper.
func (p *LogicalPhoto) SetDuplicateOf(keeperID string) {
	p.DuplicateOf = keeperID
	p.hasDuplicateOf = true
	p.IsDuplicate = true
}

// NewPhotoID derives a stable identifier from a primary file's path:
// the same absolute path always produces the same ID, across scans and
// process restarts, without needing to persist an ID table.
func NewPhotoID(primaryPath string) string {
	return uuid.NewSHA1(photoNamespace, []byte(primaryPath)).String()
}

// HashCacheEntry is one row of the persistent hash cache (C1).
type HashCacheEntry struct {
	Path         string
	Size         uint64
	ModifiedAt   int64
	TrailingHash string // empty if not yet computed
	FullHash     string // empty if not yet computed
}

// MoveOp is a single from/to pair, the unit of an UndoEntry and of a
// move_batch request.
type MoveOp struct {
	From string
	To   string
}

// UndoEntry records one reversible FileOps operation (moves only, per
// spec: trash/rename/create-folder are not undoable by this system).
type UndoEntry struct {
	Kind       string // always "move"
	Timestamp  int64
	Operations []MoveOp
}
