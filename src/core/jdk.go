package core

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/tcbuild/tcbuild/src/fs"
)

// A JDK is a named Java installation that modules compile and run with.
type JDK struct {
	Name    string
	Home    string
	Version string
}

// Tool returns the path to one of this JDK's tools, e.g. javac or java.
// If the JDK has no home the bare name is returned, to be found on the PATH.
func (jdk *JDK) Tool(name string) string {
	if jdk.Home == "" {
		return name
	}
	return filepath.Join(jdk.Home, "bin", name)
}

// A JDKSet holds all the configured JDKs.
type JDKSet struct {
	jdks map[string]*JDK
}

// NewJDKSet creates the JDK set from the [jdk] sections of the given config.
// A leading ~ in a JDK's home is expanded.
func NewJDKSet(config *Configuration) *JDKSet {
	set := &JDKSet{jdks: map[string]*JDK{}}
	for name, jdk := range config.JDK {
		set.jdks[name] = &JDK{Name: name, Home: fs.ExpandHomePath(jdk.Home), Version: jdk.Version}
	}
	return set
}

// Lookup returns the JDK with the given name.
func (set *JDKSet) Lookup(name string) (*JDK, error) {
	if jdk, present := set.jdks[name]; present {
		return jdk, nil
	}
	return nil, lookupError(ErrNoSuchJDK, name, set.Names())
}

// Names returns the names of all the JDKs, sorted.
func (set *JDKSet) Names() []string {
	names := make([]string, 0, len(set.jdks))
	for name := range set.jdks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check returns an error if any module in the set refers to a JDK that isn't configured.
func (set *JDKSet) Check(modules *BuildModuleSet) error {
	for _, m := range modules.Modules() {
		if _, err := set.Lookup(m.JDK); err != nil {
			return fmt.Errorf("module %s: %w", m.Name, err)
		}
	}
	return nil
}
