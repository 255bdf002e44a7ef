package fs

import (
	"os"
	"strings"
)

// A PathSet is an ordered list of paths, for example a classpath.
// Order is significant and is always preserved; duplicates are allowed and never removed.
// The empty string is never stored.
type PathSet struct {
	paths []string
}

// NewPathSet returns a new PathSet containing the given paths. See Add for what is accepted.
func NewPathSet(paths ...interface{}) *PathSet {
	return new(PathSet).Add(paths...)
}

// Add adds paths to the end of this set. Each argument can be a string, a slice of strings,
// a FilePath or another PathSet; empty strings are skipped.
// It returns the same set to allow chaining.
func (ps *PathSet) Add(paths ...interface{}) *PathSet {
	for _, p := range paths {
		switch v := p.(type) {
		case string:
			ps.addString(v)
		case []string:
			for _, s := range v {
				ps.addString(s)
			}
		case *FilePath:
			if v != nil {
				ps.addString(v.String())
			}
		case *PathSet:
			ps.Append(v)
		case nil:
		default:
			ps.addString(NewFilePath(v).String())
		}
	}
	return ps
}

func (ps *PathSet) addString(s string) {
	if s != "" {
		ps.paths = append(ps.paths, s)
	}
}

// Append adds all the paths of another set to the end of this one.
func (ps *PathSet) Append(other *PathSet) *PathSet {
	if other != nil {
		ps.paths = append(ps.paths, other.paths...)
	}
	return ps
}

// Prepend inserts all the paths of another set at the front of this one, so they take
// precedence over everything already here.
func (ps *PathSet) Prepend(other *PathSet) *PathSet {
	if other != nil && len(other.paths) > 0 {
		paths := make([]string, 0, len(other.paths)+len(ps.paths))
		ps.paths = append(append(paths, other.paths...), ps.paths...)
	}
	return ps
}

// Paths returns a copy of the paths in this set, in order.
func (ps *PathSet) Paths() []string {
	return append([]string{}, ps.paths...)
}

// Len returns the number of paths in this set.
func (ps *PathSet) Len() int {
	return len(ps.paths)
}

// Contains returns true if the given path is in this set.
func (ps *PathSet) Contains(path string) bool {
	for _, p := range ps.paths {
		if p == path {
			return true
		}
	}
	return false
}

// Copy returns an independent copy of this set.
func (ps *PathSet) Copy() *PathSet {
	return &PathSet{paths: ps.Paths()}
}

// Join returns the paths joined with the given separator.
func (ps *PathSet) Join(sep string) string {
	return strings.Join(ps.paths, sep)
}

// String returns the paths joined with the host's list separator, as a JVM expects a classpath.
func (ps *PathSet) String() string {
	return ps.Join(string(os.PathListSeparator))
}
