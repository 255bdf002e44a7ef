// Package fs provides filesystem helpers and the path primitives that classpaths are built from.
package fs

import (
	"os"
	"path/filepath"
	"sort"
)

// DirPermissions are the default permission bits we apply to directories.
const DirPermissions = os.ModeDir | 0775

// An FS is the minimal view of a filesystem that the build model needs.
// The host implementation is HostFS; tests typically use a MemFS instead.
type FS interface {
	// Exists returns true if the given path exists, as a file or a directory.
	Exists(path string) bool
	// IsDir returns true if the given path exists and is a directory.
	IsDir(path string) bool
	// ReadDir returns the names of the entries in a directory, sorted lexically.
	ReadDir(path string) ([]string, error)
	// Walk calls the callback for the given path and everything beneath it.
	Walk(root string, callback func(name string, isDir bool) error) error
	// ReadFile returns the contents of a file.
	ReadFile(path string) ([]byte, error)
}

type hostFS struct{}

func (hostFS) Exists(path string) bool {
	return PathExists(path)
}

func (hostFS) IsDir(path string) bool {
	return IsDirectory(path)
}

func (hostFS) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name()
	}
	sort.Strings(names)
	return names, nil
}

func (hostFS) Walk(root string, callback func(name string, isDir bool) error) error {
	return Walk(root, callback)
}

func (hostFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// HostFS is an FS that reads from the host OS.
var HostFS FS = hostFS{}

// EnsureDir ensures that the directory of the given file has been created.
func EnsureDir(filename string) error {
	return os.MkdirAll(filepath.Dir(filename), DirPermissions)
}

// PathExists returns true if the given path exists, as a file or a directory.
func PathExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// IsDirectory returns true if the given path exists and is a directory.
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
