// Contains utility functions for managing an exclusive lock file.
// Based on flock() underneath so it's released automatically if the process dies.

package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/tcbuild/tcbuild/src/fs"
)

// lockFileName is the name of the lock file within the output directory.
const lockFileName = ".lock"

// A RepoLock is an exclusive lock on a repo's output directory, so two runs can't write to it at once.
type RepoLock struct {
	file *os.File
}

// LockFilePath returns the path to the lock file for the given layout.
func LockFilePath(layout Layout) string {
	return filepath.Join(layout.OutputDir, lockFileName)
}

// AcquireRepoLock opens the lock file and acquires the lock, waiting if another run holds it.
// The arguments of this run are recorded in the file.
func AcquireRepoLock(layout Layout, args []string) (*RepoLock, error) {
	path := LockFilePath(layout)
	// There is of course technically a bit of a race condition between the file & flock operations here,
	// but it shouldn't matter much since we're trying to mutually exclude tcbuild processes started by the user
	// which (one hopes) they wouldn't normally do simultaneously.
	if err := fs.EnsureDir(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	// Try a non-blocking acquire first so we can warn the user if we're waiting.
	log.Debug("Attempting to acquire lock %s...", path)
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		log.Warning("Looks like another tcbuild is already running in this repo. Waiting for it to finish...")
		if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
	}
	log.Debug("Acquired lock %s", path)
	// Record the operation performed.
	if _, err = f.Seek(0, io.SeekStart); err == nil {
		if n, err := f.Write([]byte(strings.Join(args, " ") + "\n")); err == nil {
			f.Truncate(int64(n))
		}
	}
	return &RepoLock{file: f}, nil
}

// Release releases the lock and closes the file handle.
// Does not return errors, at this point it wouldn't really do any good.
func (lock *RepoLock) Release() {
	if lock == nil || lock.file == nil {
		return
	}
	if err := syscall.Flock(int(lock.file.Fd()), syscall.LOCK_UN); err != nil {
		log.Errorf("Failed to release lock: %s", err) // No point making this fatal really
	}
	if err := lock.file.Close(); err != nil {
		log.Errorf("Failed to close lock file: %s", err)
	}
	lock.file = nil
}
