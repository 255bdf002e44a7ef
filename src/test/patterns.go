package test

import (
	"fmt"
	"path"
	"strings"

	"github.com/tcbuild/tcbuild/src/fs"
)

// A Pattern selects test classes. It has one of these forms, each optionally prefixed with
// module: to restrict it to one module:
//
//	FooTest               a class with that simple name, in any package
//	*IntegrationTest      a glob over simple names
//	com.example.FooTest   a fully qualified name
//	com.example.*         a glob over qualified names; * stays within a package
//	com.example.**        everything in com.example and below
type Pattern struct {
	// Module is the module this pattern is restricted to, or empty for all of them.
	Module string
	// Glob is the pattern without the module prefix.
	Glob string

	qualified bool
	matcher   fs.Matcher
}

// ParsePattern parses a test class pattern.
func ParsePattern(s string) (*Pattern, error) {
	p := &Pattern{Glob: s}
	if module, glob, found := strings.Cut(s, ":"); found {
		p.Module = module
		p.Glob = glob
	}
	if p.Glob == "" {
		return nil, fmt.Errorf("empty test pattern %q", s)
	}
	glob := p.Glob
	if strings.Contains(glob, ".") {
		p.qualified = true
		glob = strings.ReplaceAll(glob, ".", "/")
	}
	m, err := fs.NewMatcher(glob)
	if err != nil {
		return nil, err
	}
	p.matcher = m
	return p, nil
}

// ParsePatterns parses a list of test class patterns.
func ParsePatterns(patterns []string) ([]*Pattern, error) {
	ret := make([]*Pattern, len(patterns))
	for i, s := range patterns {
		p, err := ParsePattern(s)
		if err != nil {
			return nil, err
		}
		ret[i] = p
	}
	return ret, nil
}

// String returns the pattern as it was written.
func (p *Pattern) String() string {
	if p.Module != "" {
		return p.Module + ":" + p.Glob
	}
	return p.Glob
}

// AppliesTo returns true if this pattern can select classes from the given module.
func (p *Pattern) AppliesTo(module string) bool {
	return p.Module == "" || p.Module == module
}

// Match returns true if the given fully qualified class name matches this pattern.
func (p *Pattern) Match(class string) bool {
	name := strings.ReplaceAll(class, ".", "/")
	if !p.qualified {
		name = path.Base(name)
	}
	return p.matcher.Match(name)
}
