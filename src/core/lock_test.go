package core

import (
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRepoLock(t *testing.T) {
	layout := NewLayout(t.TempDir(), "build")
	// Grab the lock
	lock, err := AcquireRepoLock(layout, []string{"check", "app"})
	require.NoError(t, err)
	// Now we should be able to open the file (ie. it exists)
	lockFile, err := os.Open(LockFilePath(layout))
	require.NoError(t, err)
	defer lockFile.Close()
	assert.Error(t, syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB))
	// Let it go again
	lock.Release()
	// Now we can get it
	assert.NoError(t, syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB))
	assert.NoError(t, syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN))
	// Releasing twice is harmless.
	lock.Release()
}
