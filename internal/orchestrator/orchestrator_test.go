package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/user/photodupe/internal/hashcache"
	"github.com/user/photodupe/internal/hasher"
	"github.com/user/photodupe/internal/progress"
	"github.com/user/photodupe/internal/scanerr"
)

func newOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	cache := hashcache.Open(filepath.Join(t.TempDir(), "cache.db"), nil)
	t.Cleanup(func() { cache.Close() })
	extensions := map[string]bool{"jpg": true, "cr2": true, "xmp": true}
	return New(extensions, hasher.New(cache))
}

func TestScanFindsDuplicatesAcrossRoots(t *testing.T) {
	root := t.TempDir()
	otherRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.jpg"), []byte("dup"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(otherRoot, "bb.jpg"), []byte("dup"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	o := newOrchestrator(t)
	result, err := o.Scan(context.Background(), []string{root, otherRoot}, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(result.Photos))
	}
	if len(result.Groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(result.Groups))
	}
}

func TestScanRejectsOverlappingRequests(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		name := filepath.Join(root, string(rune('a'+i))+".jpg")
		if err := os.WriteFile(name, []byte(name), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	o := newOrchestrator(t)
	o.mu.Lock()
	o.running = true
	o.mu.Unlock()

	_, err := o.Scan(context.Background(), []string{root}, nil)
	if !scanerr.Is(err, scanerr.ScanInProgress) {
		t.Fatalf("expected ScanInProgress, got %v", err)
	}
}

func TestScanPublishesPhaseBoundaries(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reporter := progress.New()
	events := reporter.Subscribe(32)

	o := newOrchestrator(t)
	var wg sync.WaitGroup
	var seenComplete bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range events {
			if ev.Phase == progress.PhaseComplete {
				seenComplete = true
			}
		}
	}()

	if _, err := o.Scan(context.Background(), []string{root}, reporter); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	reporter.Close()
	wg.Wait()

	if !seenComplete {
		t.Fatal("expected a complete phase event to be published")
	}
}

func TestScanCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 50; i++ {
		name := filepath.Join(root, string(rune('a'+i%26))+string(rune('0'+i/26))+".jpg")
		if err := os.WriteFile(name, []byte(name), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	o := newOrchestrator(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	result, err := o.Scan(ctx, []string{root}, nil)
	if err != nil {
		t.Fatalf("Scan should return nil error on cancellation, got %v", err)
	}
	if !result.Cancelled {
		t.Fatal("expected Cancelled=true")
	}
}
