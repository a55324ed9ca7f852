package duplicate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/photodupe/internal/hashcache"
	"github.com/user/photodupe/internal/hasher"
	"github.com/user/photodupe/internal/model"
	"github.com/user/photodupe/internal/progress"
)

func photoFor(t *testing.T, dir, name string, content []byte) model.LogicalPhoto {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	raw := model.RawFile{Path: path, Name: name, Size: uint64(info.Size()), ModifiedAt: info.ModTime().Unix()}
	return model.LogicalPhoto{
		ID:      model.NewPhotoID(path),
		Primary: raw,
		Size:    raw.Size,
	}
}

func newDetector(t *testing.T) *Detector {
	t.Helper()
	dir := t.TempDir()
	cache := hashcache.Open(filepath.Join(dir, "cache.db"), nil)
	t.Cleanup(func() { cache.Close() })
	return New(hasher.New(cache), 2, nil)
}

func TestDetectFindsDuplicateContent(t *testing.T) {
	dir := t.TempDir()
	a := photoFor(t, dir, "a.jpg", []byte("same bytes"))
	b := photoFor(t, dir, "bb.jpg", []byte("same bytes"))
	c := photoFor(t, dir, "c.jpg", []byte("different"))

	d := newDetector(t)
	result, groups, _, err := d.Detect(context.Background(), []model.LogicalPhoto{a, b, c})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(groups))
	}
	if len(groups[0].Photos) != 2 {
		t.Fatalf("expected 2 photos in duplicate group, got %d", len(groups[0].Photos))
	}

	byID := make(map[string]model.LogicalPhoto)
	for _, p := range result {
		byID[p.ID] = p
	}
	if byID[c.ID].IsDuplicate {
		t.Fatal("distinct-content photo must not be flagged duplicate")
	}

	keeper := groups[0].Keeper
	if keeper != a.ID {
		t.Fatalf("expected shorter path %q as keeper, got %q", a.Primary.Path, keeper)
	}
	if !byID[b.ID].IsDuplicate || byID[b.ID].DuplicateOf != keeper {
		t.Fatalf("expected b to be marked duplicate of keeper, got %+v", byID[b.ID])
	}
	if byID[keeper].IsDuplicate {
		t.Fatal("keeper itself must not be marked duplicate")
	}
}

func TestDetectSkipsUniqueSizeBuckets(t *testing.T) {
	dir := t.TempDir()
	a := photoFor(t, dir, "a.jpg", []byte("one"))
	b := photoFor(t, dir, "b.jpg", []byte("twotwo"))

	d := newDetector(t)
	_, groups, _, err := d.Detect(context.Background(), []model.LogicalPhoto{a, b})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no duplicate groups for distinct sizes, got %d", len(groups))
	}
}

func TestDetectSkipsCloudPlaceholders(t *testing.T) {
	dir := t.TempDir()
	a := photoFor(t, dir, "a.jpg", []byte("content"))
	placeholder := a
	placeholder.ID = model.NewPhotoID(filepath.Join(dir, "ghost.jpg"))
	placeholder.Primary.Path = filepath.Join(dir, "ghost.jpg")
	placeholder.Primary.IsCloudPlaceholder = true

	d := newDetector(t)
	result, groups, _, err := d.Detect(context.Background(), []model.LogicalPhoto{a, placeholder})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(groups) != 0 {
		t.Fatal("expected placeholder to be excluded from candidacy, not grouped")
	}
	for _, p := range result {
		if p.IsDuplicate {
			t.Fatalf("expected no duplicates when a candidate is a placeholder, got %+v", p)
		}
	}
}

func TestDetectSurfacesHashingWarnings(t *testing.T) {
	dir := t.TempDir()
	a := photoFor(t, dir, "a.jpg", []byte("same bytes"))
	b := photoFor(t, dir, "bb.jpg", []byte("same bytes"))
	if err := os.Remove(b.Primary.Path); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	d := newDetector(t)
	_, groups, warnings, err := d.Detect(context.Background(), []model.LogicalPhoto{a, b})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no duplicate group when one candidate vanished, got %d", len(groups))
	}
	if len(warnings) != 1 || warnings[0].Path != b.Primary.Path {
		t.Fatalf("expected one warning for the vanished file, got %+v", warnings)
	}
}

func TestDetectPublishesIncrementalHashingProgress(t *testing.T) {
	dir := t.TempDir()
	a := photoFor(t, dir, "a.jpg", []byte("same bytes"))
	b := photoFor(t, dir, "bb.jpg", []byte("same bytes"))

	cache := hashcache.Open(filepath.Join(dir, "cache.db"), nil)
	t.Cleanup(func() { cache.Close() })
	reporter := progress.New()
	events := reporter.Subscribe(64)
	d := New(hasher.New(cache), 2, reporter)

	if _, _, _, err := d.Detect(context.Background(), []model.LogicalPhoto{a, b}); err != nil {
		t.Fatalf("Detect: %v", err)
	}
	reporter.Close()

	var sawNonZeroTrailing, sawNonZeroHashing bool
	for ev := range events {
		if ev.Phase == progress.PhaseTrailing && ev.Current > 0 {
			sawNonZeroTrailing = true
		}
		if ev.Phase == progress.PhaseHashing && ev.Current > 0 {
			sawNonZeroHashing = true
		}
	}
	if !sawNonZeroTrailing {
		t.Fatal("expected at least one trailing_hash event with current > 0")
	}
	if !sawNonZeroHashing {
		t.Fatal("expected at least one hashing event with current > 0")
	}
}
