//go:build !windows

package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// trashFile implements the freedesktop.org trash specification's home
// trash directory ($XDG_DATA_HOME/Trash, falling back to
// ~/.local/share/Trash): move the file into files/ and write a sibling
// .trashinfo record into info/ so a standard desktop trash can restore
// it, per spec §4.8 ("sends files to the OS recycle facility").
func trashFile(path string) error {
	trashDir, err := homeTrashDir()
	if err != nil {
		return err
	}
	filesDir := filepath.Join(trashDir, "files")
	infoDir := filepath.Join(trashDir, "info")
	if err := os.MkdirAll(filesDir, 0o700); err != nil {
		return err
	}
	if err := os.MkdirAll(infoDir, 0o700); err != nil {
		return err
	}

	name := filepath.Base(path)
	destName := uniqueTrashName(filesDir, name)

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		absPath, time.Now().Format("2006-01-02T15:04:05"))
	infoPath := filepath.Join(infoDir, destName+".trashinfo")
	if err := os.WriteFile(infoPath, []byte(info), 0o600); err != nil {
		return err
	}

	dest := filepath.Join(filesDir, destName)
	if err := os.Rename(path, dest); err != nil {
		os.Remove(infoPath)
		return err
	}
	return nil
}

// homeTrashDir resolves $XDG_DATA_HOME/Trash, defaulting to
// ~/.local/share/Trash when XDG_DATA_HOME is unset.
func homeTrashDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "Trash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

// uniqueTrashName appends a numeric suffix until name doesn't already
// exist in dir, mirroring the trash spec's collision handling.
func uniqueTrashName(dir, name string) string {
	candidate := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); err != nil {
			return candidate
		}
		candidate = fmt.Sprintf("%s.%d%s", base, n, ext)
	}
}
