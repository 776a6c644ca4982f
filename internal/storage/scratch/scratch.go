// Package scratch resolves staging paths for files that are written in full
// and then renamed onto their final location.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileModeForDirs is the permission used when creating the scratch directory.
const FileModeForDirs os.FileMode = 0o755

// Dir is a scratch directory. It should live on the same filesystem as the
// files it stages, otherwise the final rename is not atomic.
type Dir struct {
	root string
}

// New returns a scratch directory rooted at root. An empty root selects the
// system temporary directory.
func New(root string) *Dir {
	if root == "" {
		root = os.TempDir()
	}
	return &Dir{root: root}
}

// Root returns the directory that holds staged files.
func (d *Dir) Root() string {
	return d.root
}

// Create opens a new, uniquely named staging file derived from filename.
// Concurrent callers staging the same filename never share a file.
func (d *Dir) Create(filename string) (*os.File, error) {
	if err := os.MkdirAll(d.root, FileModeForDirs); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	f, err := os.CreateTemp(d.root, filepath.Base(filename)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}
	return f, nil
}

// Commit closes the staged file and atomically renames it onto dest. The
// staged file is removed on any failure.
func Commit(f *os.File, dest string) error {
	tmpPath := f.Name()
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close staged file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), FileModeForDirs); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename staged file: %w", err)
	}
	return nil
}

// Discard closes and removes a staged file that will not be committed.
func Discard(f *os.File) {
	f.Close()
	os.Remove(f.Name())
}
