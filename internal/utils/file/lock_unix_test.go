//go:build unix

package file_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavet/crmdialer/internal/utils/file"
)

func TestLockExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workbook.lock")

	l1, err := file.LockExclusive(path)
	require.NoError(t, err)

	acquired := make(chan *file.Lock)
	go func() {
		l2, err := file.LockExclusive(path)
		if err == nil {
			acquired <- l2
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first one is held")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, l1.Unlock())

	select {
	case l2 := <-acquired:
		assert.NoError(t, l2.Unlock())
	case <-time.After(5 * time.Second):
		t.Fatal("second lock not acquired after unlock")
	}
}
