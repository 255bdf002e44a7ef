package fs

import (
	"os"
	"path"
	"sort"
	"strings"
)

// A MemFS is an in-memory FS, used mostly in tests to describe a directory tree without
// having to create it on disk. It isn't safe for concurrent modification.
type MemFS struct {
	entries  map[string]bool // path -> is a directory
	contents map[string][]byte
}

// NewMemFS returns a new MemFS containing the given paths. Paths ending in a slash are
// directories, anything else is a file; all parents are created as directories.
func NewMemFS(paths ...string) *MemFS {
	m := &MemFS{
		entries:  map[string]bool{"/": true, ".": true},
		contents: map[string][]byte{},
	}
	for _, p := range paths {
		m.Add(p, strings.HasSuffix(p, "/"))
	}
	return m
}

// Add adds a file or directory, and any parent directories it needs.
func (m *MemFS) Add(p string, isDir bool) {
	p = memClean(p)
	m.entries[p] = isDir
	for dir := path.Dir(p); dir != p; p, dir = dir, path.Dir(dir) {
		m.entries[dir] = true
	}
}

// AddFile adds a file with the given contents, and any parent directories it needs.
func (m *MemFS) AddFile(p string, contents string) {
	m.Add(p, false)
	m.contents[memClean(p)] = []byte(contents)
}

// ReadFile implements the FS interface. Files added without contents read as empty.
func (m *MemFS) ReadFile(p string) ([]byte, error) {
	p = memClean(p)
	if isDir, present := m.entries[p]; !present || isDir {
		return nil, &os.PathError{Op: "open", Path: p, Err: os.ErrNotExist}
	}
	return append([]byte{}, m.contents[p]...), nil
}

func memClean(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// Exists implements the FS interface.
func (m *MemFS) Exists(p string) bool {
	_, present := m.entries[memClean(p)]
	return present
}

// IsDir implements the FS interface.
func (m *MemFS) IsDir(p string) bool {
	return m.entries[memClean(p)]
}

// ReadDir implements the FS interface.
func (m *MemFS) ReadDir(p string) ([]string, error) {
	p = memClean(p)
	if !m.entries[p] {
		return nil, &os.PathError{Op: "readdir", Path: p, Err: os.ErrNotExist}
	}
	names := []string{}
	for entry := range m.entries {
		if entry != p && path.Dir(entry) == p {
			names = append(names, path.Base(entry))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Walk implements the FS interface. Entries are visited depth-first in lexical order.
func (m *MemFS) Walk(root string, callback func(name string, isDir bool) error) error {
	root = memClean(root)
	isDir, present := m.entries[root]
	if !present {
		return &os.PathError{Op: "walk", Path: root, Err: os.ErrNotExist}
	}
	if err := callback(root, isDir); err != nil || !isDir {
		return err
	}
	names, _ := m.ReadDir(root)
	for _, name := range names {
		if err := m.Walk(path.Join(root, name), callback); err != nil {
			return err
		}
	}
	return nil
}
