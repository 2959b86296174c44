//go:build unix

package file

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// LockExclusive blocks until the exclusive lock on path is acquired. The lock file is created
// if missing and left in place on unlock.
func LockExclusive(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open lock file: %w", err)
	}

	for {
		err = unix.Flock(int(f.Fd()), unix.LOCK_EX)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		f.Close()
		if err == unix.ENOLCK || err == unix.EOPNOTSUPP {
			return nil, fmt.Errorf("flock %s: %w", path, ErrLockUnsupported)
		}
		return nil, fmt.Errorf("could not lock %s: %w", path, err)
	}

	return &Lock{f: f}, nil
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
