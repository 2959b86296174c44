//go:build !unix

package file

import (
	"fmt"
	"os"
)

// LockExclusive is not supported on non-Unix platforms.
func LockExclusive(path string) (*Lock, error) {
	return nil, fmt.Errorf("not available on this platform: %w", ErrLockUnsupported)
}

func unlockFile(_ *os.File) error { return nil }
