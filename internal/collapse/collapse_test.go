package collapse

import (
	"testing"

	"github.com/user/photodupe/internal/model"
)

func rawFile(dir, name, ext string, size uint64) model.RawFile {
	return model.RawFile{
		Path:      dir + "/" + name,
		Name:      name,
		Extension: ext,
		Directory: dir,
		Size:      size,
	}
}

func TestGroupPrefersRawOverStandard(t *testing.T) {
	files := []model.RawFile{
		rawFile("/a", "IMG_0001.CR2", "cr2", 100),
		rawFile("/a", "IMG_0001.JPG", "jpg", 50),
		rawFile("/a", "IMG_0001.XMP", "xmp", 1),
	}

	photos := Group(files)
	if len(photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(photos))
	}
	p := photos[0]
	if p.Primary.Extension != "cr2" {
		t.Fatalf("expected cr2 primary, got %s", p.Primary.Extension)
	}
	if len(p.Related) != 2 {
		t.Fatalf("expected 2 related files, got %d", len(p.Related))
	}
	if p.ThumbnailPath != "/a/IMG_0001.JPG" {
		t.Fatalf("expected jpeg preview as thumbnail, got %q", p.ThumbnailPath)
	}
}

func TestGroupStandardOnly(t *testing.T) {
	files := []model.RawFile{
		rawFile("/a", "photo.png", "png", 100),
	}
	photos := Group(files)
	if len(photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(photos))
	}
	if photos[0].ThumbnailPath != "/a/photo.png" {
		t.Fatalf("standard-raster primary should self-thumbnail")
	}
}

func TestGroupDiscardsLoneSidecar(t *testing.T) {
	files := []model.RawFile{
		rawFile("/a", "orphan.xmp", "xmp", 1),
	}
	photos := Group(files)
	if len(photos) != 0 {
		t.Fatalf("expected lone sidecar to be discarded, got %d photos", len(photos))
	}
}

func TestCollapseScopesGroupingToDirectory(t *testing.T) {
	files := []model.RawFile{
		rawFile("/a", "IMG_0001.CR2", "cr2", 100),
		rawFile("/b", "IMG_0001.CR2", "cr2", 200),
	}
	photos := Collapse(files)
	if len(photos) != 2 {
		t.Fatalf("expected same base name in different dirs to stay separate, got %d photos", len(photos))
	}
}

func TestShortestLexPathTiebreak(t *testing.T) {
	candidates := []model.RawFile{
		{Path: "/a/zzz.cr2"},
		{Path: "/a/aaa.cr2"},
	}
	winner := shortestLexPath(candidates)
	if winner.Path != "/a/aaa.cr2" {
		t.Fatalf("expected lexicographic winner among equal-length paths, got %q", winner.Path)
	}
}
