package fs

import (
	"fmt"
	"path/filepath"
	"strings"
)

// A FilePath is a platform-neutral path: an ordered list of components plus a flag for whether
// it is absolute. Any mix of '/' and '\' separators is accepted on input; empty components
// (from duplicated separators) and '.' are dropped as the path is built, so two FilePaths
// naming the same location always compare equal.
//
// Construction never fails; malformed input just yields a shorter path.
type FilePath struct {
	components []string
	absolute   bool
	volume     string
}

// NewFilePath builds a new path from any number of path-like parts, which can be strings,
// other FilePaths or anything implementing fmt.Stringer.
// Only the first part decides whether the result is absolute.
func NewFilePath(parts ...interface{}) *FilePath {
	return new(FilePath).Append(parts...)
}

// Append adds the given parts to the end of this path, normalising as it goes.
// It returns the same path to allow chaining.
func (p *FilePath) Append(parts ...interface{}) *FilePath {
	for _, part := range parts {
		switch v := part.(type) {
		case nil:
		case string:
			p.appendString(v)
		case *FilePath:
			if v != nil {
				p.appendPath(v)
			}
		case FilePath:
			p.appendPath(&v)
		case fmt.Stringer:
			p.appendString(v.String())
		default:
			p.appendString(fmt.Sprint(v))
		}
	}
	return p
}

func (p *FilePath) isEmpty() bool {
	return len(p.components) == 0 && !p.absolute
}

func (p *FilePath) appendPath(other *FilePath) {
	if p.isEmpty() {
		p.absolute = other.absolute
		p.volume = other.volume
	}
	for _, c := range other.components {
		p.push(c)
	}
}

func (p *FilePath) appendString(s string) {
	if s == "" {
		return
	}
	if p.isEmpty() {
		if vol := volumeOf(s); vol != "" {
			p.volume = vol
			p.absolute = true
			s = s[len(vol):]
		} else if s[0] == '/' || s[0] == '\\' {
			p.absolute = true
		}
	}
	for _, c := range strings.FieldsFunc(s, isSeparator) {
		p.push(c)
	}
}

// push adds a single component, resolving '.' and '..' against what's already there.
func (p *FilePath) push(c string) {
	switch c {
	case "", ".":
		return
	case "..":
		if n := len(p.components); n > 0 && p.components[n-1] != ".." {
			p.components = p.components[:n-1]
		} else if !p.absolute {
			p.components = append(p.components, c)
		}
		return
	}
	p.components = append(p.components, c)
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// volumeOf returns a Windows drive prefix such as "C:" if the string starts with one.
// Elsewhere a drive letter is only recognised when a separator follows it, so a relative
// name like "a:foo" stays as it is.
func volumeOf(s string) string {
	if vol := filepath.VolumeName(s); vol != "" {
		return vol
	}
	if len(s) >= 3 && s[1] == ':' && isSeparator(rune(s[2])) && ((s[0] >= 'a' && s[0] <= 'z') || (s[0] >= 'A' && s[0] <= 'Z')) {
		return s[:2]
	}
	return ""
}

// IsAbsolute returns true if this path is absolute.
func (p *FilePath) IsAbsolute() bool {
	return p.absolute
}

// Components returns a copy of the components of this path.
func (p *FilePath) Components() []string {
	return append([]string{}, p.components...)
}

// Base returns the last component of this path, or the empty string for a root or empty path.
func (p *FilePath) Base() string {
	if len(p.components) == 0 {
		return ""
	}
	return p.components[len(p.components)-1]
}

// String returns this path using the separator of the host platform.
func (p *FilePath) String() string {
	return p.join(string(filepath.Separator))
}

// Slash returns this path using forward slashes regardless of platform.
func (p *FilePath) Slash() string {
	return p.join("/")
}

func (p *FilePath) join(sep string) string {
	s := strings.Join(p.components, sep)
	if p.absolute {
		return p.volume + sep + s
	} else if s == "" {
		return "."
	}
	return s
}

// Copy returns an independent copy of this path.
func (p *FilePath) Copy() *FilePath {
	return &FilePath{
		components: p.Components(),
		absolute:   p.absolute,
		volume:     p.volume,
	}
}

// Child returns a new path made from this one with the given parts appended; this one is not modified.
func (p *FilePath) Child(parts ...interface{}) *FilePath {
	return p.Copy().Append(parts...)
}

// DirectoryOf returns the directory containing this path. The root is its own directory.
func (p *FilePath) DirectoryOf() *FilePath {
	dir := p.Copy()
	if n := len(dir.components); n > 0 && dir.components[n-1] != ".." {
		dir.components = dir.components[:n-1]
	} else if !dir.absolute {
		dir.components = append(dir.components, "..")
	}
	return dir
}

// RelativeTo returns this path expressed relative to the given base.
// If the two can't be related (one absolute and one not, or different volumes) a copy of
// this path is returned unchanged.
func (p *FilePath) RelativeTo(base *FilePath) *FilePath {
	if p.absolute != base.absolute || !strings.EqualFold(p.volume, base.volume) {
		return p.Copy()
	}
	i := 0
	for i < len(p.components) && i < len(base.components) && p.components[i] == base.components[i] {
		i++
	}
	rel := &FilePath{}
	for range base.components[i:] {
		rel.components = append(rel.components, "..")
	}
	rel.components = append(rel.components, p.components[i:]...)
	return rel
}

// Equal returns true if the two paths have the same canonical form.
func (p *FilePath) Equal(other *FilePath) bool {
	return other != nil && p.Slash() == other.Slash()
}
