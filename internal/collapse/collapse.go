// Package collapse implements C3: grouping raw files that share a base
// name within a single directory into one LogicalPhoto, choosing a
// primary file and classifying the rest as related sidecars/previews.
//
// Grounded on the teacher's extension-driven classification style
// (files.go's allowedExtensions / evaluateFileForBackup) generalized
// from a flat allow-list into the three extension classes spec §3/§4.3
// distinguishes: RAW, standard raster, and sidecar.
package collapse

import (
	"sort"
	"strings"

	"github.com/user/photodupe/internal/model"
)

// RawExtensions is the accepted RAW extension set, per spec §6.
var RawExtensions = map[string]bool{
	"arw": true, "cr2": true, "cr3": true, "nef": true, "dng": true,
	"raf": true, "orf": true, "rw2": true, "pef": true,
}

// StandardExtensions is the accepted standard-raster extension set.
var StandardExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
	"heic": true, "heif": true, "tiff": true, "bmp": true,
}

// SidecarExtensions is the accepted sidecar extension set.
var SidecarExtensions = map[string]bool{
	"xmp": true, "xml": true,
}

// AllExtensions is the union consumed by the Discoverer's allow-list.
func AllExtensions() map[string]bool {
	all := make(map[string]bool, len(RawExtensions)+len(StandardExtensions)+len(SidecarExtensions))
	for ext := range RawExtensions {
		all[ext] = true
	}
	for ext := range StandardExtensions {
		all[ext] = true
	}
	for ext := range SidecarExtensions {
		all[ext] = true
	}
	return all
}

// baseName returns name with its final extension removed, for
// case-insensitive comparison (spec §4.3).
func baseName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// Group collapses raw within one directory into LogicalPhotos. Callers
// are responsible for partitioning raw by directory first (collapsing
// is scoped to a single directory, per spec §4.3); Collapse below does
// that partitioning across an entire scan.
func Group(raw []model.RawFile) []model.LogicalPhoto {
	byBase := make(map[string][]model.RawFile)
	var order []string
	for _, f := range raw {
		key := baseName(f.Name)
		if _, seen := byBase[key]; !seen {
			order = append(order, key)
		}
		byBase[key] = append(byBase[key], f)
	}

	var photos []model.LogicalPhoto
	for _, key := range order {
		members := byBase[key]
		photo, ok := collapseGroup(members)
		if ok {
			photos = append(photos, photo)
		}
	}
	return photos
}

// Collapse partitions raw across the whole scan by directory, then
// groups each directory's files by base name, so identical base names
// in different directories never collapse together (spec §4.3, §9).
func Collapse(raw []model.RawFile) []model.LogicalPhoto {
	byDir := make(map[string][]model.RawFile)
	var dirOrder []string
	for _, f := range raw {
		if _, seen := byDir[f.Directory]; !seen {
			dirOrder = append(dirOrder, f.Directory)
		}
		byDir[f.Directory] = append(byDir[f.Directory], f)
	}

	var photos []model.LogicalPhoto
	for _, dir := range dirOrder {
		photos = append(photos, Group(byDir[dir])...)
	}
	return photos
}

// collapseGroup picks the primary of a base-name group and classifies
// the rest, per the priority order in spec §4.3. Returns ok=false if
// the group has no RAW or standard-raster member (a lone sidecar is
// not a photo).
func collapseGroup(members []model.RawFile) (model.LogicalPhoto, bool) {
	var rawMembers, standardMembers []model.RawFile
	for _, f := range members {
		switch {
		case RawExtensions[f.Extension]:
			rawMembers = append(rawMembers, f)
		case StandardExtensions[f.Extension]:
			standardMembers = append(standardMembers, f)
		}
	}

	var primary model.RawFile
	var havePrimary bool
	switch {
	case len(rawMembers) > 0:
		primary = lexPath(rawMembers)
		havePrimary = true
	case len(standardMembers) > 0:
		primary = lexPath(standardMembers)
		havePrimary = true
	}
	if !havePrimary {
		return model.LogicalPhoto{}, false
	}

	photo := model.LogicalPhoto{
		ID:         model.NewPhotoID(primary.Path),
		Primary:    primary,
		Size:       primary.Size,
		ModifiedAt: primary.ModifiedAt,
	}

	primaryIsRaw := RawExtensions[primary.Extension]
	if !primaryIsRaw {
		photo.ThumbnailPath = primary.Path
	}

	for _, f := range members {
		if f.Path == primary.Path {
			continue
		}
		switch {
		case SidecarExtensions[f.Extension]:
			photo.Related = append(photo.Related, model.RelatedFile{Path: f.Path, Name: f.Name, Kind: model.KindSidecar})
		case (f.Extension == "jpg" || f.Extension == "jpeg") && primaryIsRaw:
			photo.Related = append(photo.Related, model.RelatedFile{Path: f.Path, Name: f.Name, Kind: model.KindJPEGPreview})
			if photo.ThumbnailPath == "" {
				photo.ThumbnailPath = f.Path
			}
		case RawExtensions[f.Extension]:
			photo.Related = append(photo.Related, model.RelatedFile{Path: f.Path, Name: f.Name, Kind: model.KindRAW})
		}
	}

	return photo, true
}

// lexPath picks the tie-break winner among candidates sharing a
// priority tier by lexicographic path alone (spec §4.3's primary
// selection rule).
func lexPath(candidates []model.RawFile) model.RawFile {
	winner := candidates[0]
	for _, c := range candidates[1:] {
		if c.Path < winner.Path {
			winner = c
		}
	}
	return winner
}

// shortestLexPath picks the tie-break winner among candidates sharing
// a priority tier: shortest path length, lexicographic on ties. This
// is §4.5's *keeper*-selection rule, distinct from lexPath above —
// primary selection and keeper selection use different tie-breaks.
func shortestLexPath(candidates []model.RawFile) model.RawFile {
	sorted := make([]model.RawFile, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i].Path) != len(sorted[j].Path) {
			return len(sorted[i].Path) < len(sorted[j].Path)
		}
		return sorted[i].Path < sorted[j].Path
	})
	return sorted[0]
}
