// Package discover implements C2: a recursive filesystem walk over a
// set of enabled roots, filtered by extension, that emits RawFile
// records while respecting cloud-placeholder semantics.
//
// Grounded on the teacher's files.go getAllFiles (filepath.Walk over a
// single root, collecting errors instead of aborting) generalized to
// many roots, extension filtering, hidden/@-directory skipping, and
// cloud-placeholder tagging, streamed the way the multi-stage
// discovery/hash pipeline in other_examples' find-duplicates dupfinder
// streams paths through buffered channels instead of building one
// giant slice up front.
package discover

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/photodupe/internal/model"
)

// Warning is a per-item problem encountered during a walk (spec §4.2:
// "unreadable directories or files must produce a per-item warning and
// not abort the walk").
type Warning struct {
	Path string
	Err  error
}

// Discoverer walks a set of roots, emitting RawFile records for every
// entry whose extension is in Extensions.
type Discoverer struct {
	// Extensions is the accepted-extension allow-list, lower-case and
	// without leading dots.
	Extensions map[string]bool
}

// New builds a Discoverer accepting the given extensions.
func New(extensions map[string]bool) *Discoverer {
	return &Discoverer{Extensions: extensions}
}

// Walk recursively walks every root, sending RawFile records to the
// returned files channel and problems to the warnings channel. Both
// channels are closed when the walk (across all roots) completes or
// ctx is cancelled. Ordering is unspecified, per spec §4.2.
func (d *Discoverer) Walk(ctx context.Context, roots []string) (<-chan model.RawFile, <-chan Warning) {
	files := make(chan model.RawFile)
	warnings := make(chan Warning)

	go func() {
		defer close(files)
		defer close(warnings)
		for _, root := range roots {
			if ctx.Err() != nil {
				return
			}
			d.walkRoot(ctx, root, files, warnings)
		}
	}()

	return files, warnings
}

func (d *Discoverer) walkRoot(ctx context.Context, root string, files chan<- model.RawFile, warnings chan<- Warning) {
	entries, err := os.ReadDir(root)
	if err != nil {
		select {
		case warnings <- Warning{Path: root, Err: err}:
		case <-ctx.Done():
		}
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}

		name := entry.Name()
		path := filepath.Join(root, name)

		if entry.IsDir() {
			if skipDir(name) {
				continue
			}
			d.walkRoot(ctx, path, files, warnings)
			continue
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if !d.Extensions[ext] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			select {
			case warnings <- Warning{Path: path, Err: err}:
			case <-ctx.Done():
			}
			continue
		}

		raw := model.RawFile{
			Path:       path,
			Name:       name,
			Extension:  ext,
			Directory:  root,
			Size:       uint64(info.Size()),
			ModifiedAt: info.ModTime().Unix(),
		}
		raw.IsCloudPlaceholder = isCloudPlaceholder(path, info)

		select {
		case files <- raw:
		case <-ctx.Done():
			return
		}
	}
}

// skipDir reports whether a directory should never be descended into:
// hidden directories (leading '.') and OS-metadata directories
// (leading '@'), per spec §4.2. Symlinked directories are not followed
// because os.ReadDir + filepath.Join never dereferences them.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "@")
}
