// Package file provides file utility functions for the data directory files: whole file
// atomic replacement and advisory locking between processes.
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrLockUnsupported is returned when the platform has no advisory file locks.
var ErrLockUnsupported = errors.New("file locks not supported")

// WriteAtomic writes the content produced by write on a temporary file in the same directory
// as path and renames it over path. A failed write never leaves a truncated file.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("could not sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("could not replace %s: %w", path, err)
	}

	return nil
}

// CreateIfMissing creates path with data unless it already exists. Returns true when the file
// was created.
func CreateIfMissing(path string, data []byte, perm os.FileMode) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("could not create directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("could not create %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return false, fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("could not close %s: %w", path, err)
	}

	return true, nil
}

// Lock is an exclusive advisory lock held on a lock file.
type Lock struct {
	f *os.File
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlockFile(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
