package fileops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/photodupe/internal/progress"
	"github.com/user/photodupe/internal/scanerr"
)

func fixedClock() func() int64 {
	return func() int64 { return 1700000000 }
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestMoveThenUndo(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	a := writeTemp(t, src, "a.jpg", "contents")

	o := New(fixedClock())
	ops, err := o.Move([]string{a}, dst, nil)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("expected 1 move op, got %d", len(ops))
	}
	if _, err := os.Stat(ops[0].To); err != nil {
		t.Fatalf("expected file at destination: %v", err)
	}
	if _, err := os.Stat(a); err == nil {
		t.Fatal("expected source to be gone after move")
	}

	if err := o.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if _, err := os.Stat(a); err != nil {
		t.Fatal("expected source restored after undo")
	}
	if o.UndoDepth() != 0 {
		t.Fatalf("expected undo stack empty after undo, got depth %d", o.UndoDepth())
	}
}

func TestMoveResolvesNameCollision(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	a := writeTemp(t, src, "a.jpg", "one")
	writeTemp(t, dst, "a.jpg", "already here")

	o := New(fixedClock())
	ops, err := o.Move([]string{a}, dst, nil)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	want := filepath.Join(dst, "a (2).jpg")
	if ops[0].To != want {
		t.Fatalf("expected collision-resolved path %q, got %q", want, ops[0].To)
	}
}

func TestMoveCarriesRelatedFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	primary := writeTemp(t, src, "a.cr2", "raw")
	sidecar := writeTemp(t, src, "a.xmp", "meta")

	o := New(fixedClock())
	ops, err := o.Move([]string{primary}, dst, map[string][]string{primary: {sidecar}})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected primary + sidecar moved together, got %d ops", len(ops))
	}
}

func TestRenameRejectsPathSeparator(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.jpg", "x")

	o := New(fixedClock())
	err := o.Rename(a, "sub/b.jpg")
	if !scanerr.Is(err, scanerr.InvalidName) {
		t.Fatalf("expected InvalidName error, got %v", err)
	}
}

func TestRenameRejectsExistingTarget(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.jpg", "x")
	writeTemp(t, dir, "b.jpg", "y")

	o := New(fixedClock())
	err := o.Rename(a, "b.jpg")
	if !scanerr.Is(err, scanerr.InvalidName) {
		t.Fatalf("expected InvalidName error, got %v", err)
	}
}

func TestCreateFolderIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "deeper")

	o := New(fixedClock())
	if err := o.CreateFolder(target); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if err := o.CreateFolder(target); err != nil {
		t.Fatalf("CreateFolder should succeed when dir already exists: %v", err)
	}
}

func TestUndoWithEmptyStackFails(t *testing.T) {
	o := New(fixedClock())
	if err := o.Undo(); err == nil {
		t.Fatal("expected error undoing an empty stack")
	}
}

func TestMoveReturnsMoveConflictWhenCollisionResolutionExhausted(t *testing.T) {
	old := maxCollisionAttempts
	maxCollisionAttempts = 2
	t.Cleanup(func() { maxCollisionAttempts = old })

	src := t.TempDir()
	dst := t.TempDir()
	a := writeTemp(t, src, "a.jpg", "one")
	writeTemp(t, dst, "a.jpg", "x")
	writeTemp(t, dst, "a (2).jpg", "x")
	writeTemp(t, dst, "a (3).jpg", "x")

	o := New(fixedClock())
	_, err := o.Move([]string{a}, dst, nil)
	if !scanerr.Is(err, scanerr.MoveConflict) {
		t.Fatalf("expected MoveConflict once resolution is exhausted, got %v", err)
	}
}

func TestTrashReportsProgressAndCounts(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.jpg", "one")
	b := writeTemp(t, dir, "b.jpg", "two")

	reporter := progress.New()
	events := reporter.Subscribe(4)

	o := New(fixedClock())
	result, err := o.Trash(context.Background(), []string{a, b}, reporter, 1700000000)
	if err != nil {
		t.Fatalf("Trash: %v", err)
	}
	if result.DeletedCount != 2 {
		t.Fatalf("expected 2 deleted, got %d", result.DeletedCount)
	}
	if result.FailedCount != 0 {
		t.Fatalf("expected 0 failed, got %d", result.FailedCount)
	}

	if _, err := os.Stat(a); err == nil {
		t.Fatal("expected source file removed after trash")
	}

	ev := <-events
	if ev.Phase != progress.PhaseDeleting {
		t.Fatalf("expected first event to be deleting phase, got %q", ev.Phase)
	}
}
