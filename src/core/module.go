package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tcbuild/tcbuild/src/cli/logging"
	"github.com/tcbuild/tcbuild/src/fs"
)

var log = logging.Log

// A BuildModule is a named directory in the repository with its four subtrees, the modules
// it depends on and the groups it belongs to.
type BuildModule struct {
	// Name is unique within the module set.
	Name string
	// Root is the absolute path to the module's directory.
	Root string
	// JDK is the name of the JDK this module compiles with.
	JDK string
	// Dependencies names the modules this one depends on, in declaration order.
	Dependencies []string
	// Groups names the module groups this module belongs to.
	Groups []string
	// Javadoc is true if javadoc should be generated for this module.
	Javadoc bool
	// IsModule is true if this module builds a Java platform module.
	IsModule bool
	// AspectJ is true if this module is compiled with the AspectJ compiler.
	AspectJ bool

	set      *BuildModuleSet
	subtrees []*BuildSubtree

	mutex         sync.Mutex
	sourceUpdated bool
}

// A ModuleDefinition is what's needed to create a BuildModule.
type ModuleDefinition struct {
	Name         string
	Root         string
	JDK          string
	Dependencies []string
	Groups       []string
	Javadoc      bool
	IsModule     bool
	AspectJ      bool
}

func newBuildModule(set *BuildModuleSet, def ModuleDefinition) (*BuildModule, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("%w: module at %s has no name", ErrInvalidModule, def.Root)
	} else if def.JDK == "" {
		return nil, fmt.Errorf("%w: %s doesn't specify a jdk", ErrInvalidModule, def.Name)
	} else if !filepath.IsAbs(def.Root) {
		return nil, fmt.Errorf("%w: root of %s must be absolute, was %s", ErrInvalidModule, def.Name, def.Root)
	} else if !set.FS.IsDir(def.Root) {
		return nil, fmt.Errorf("%w: root of %s doesn't exist: %s", ErrInvalidModule, def.Name, def.Root)
	}
	m := &BuildModule{
		Name:         def.Name,
		Root:         def.Root,
		JDK:          def.JDK,
		Dependencies: append([]string{}, def.Dependencies...),
		Groups:       append([]string{}, def.Groups...),
		Javadoc:      def.Javadoc,
		IsModule:     def.IsModule,
		AspectJ:      def.AspectJ,
		set:          set,
	}
	for _, spec := range canonicalSubtrees {
		m.subtrees = append(m.subtrees, newBuildSubtree(m, spec))
	}
	return m, nil
}

func (m *BuildModule) fs() fs.FS {
	return m.set.FS
}

// String implements the fmt.Stringer interface.
func (m *BuildModule) String() string {
	return m.Name
}

// Subtree returns the subtree of this module with the given name.
func (m *BuildModule) Subtree(name string) (*BuildSubtree, error) {
	for _, st := range m.subtrees {
		if st.Name == name {
			return st, nil
		}
	}
	return nil, lookupError(ErrNoSuchSubtree, m.Name+"/"+name, CanonicalSubtreeNames())
}

// Subtrees returns all the subtrees of this module, in processing order.
func (m *BuildModule) Subtrees() []*BuildSubtree {
	return append([]*BuildSubtree{}, m.subtrees...)
}

// DependentModules returns the modules this one directly depends on, in declaration order.
func (m *BuildModule) DependentModules() ([]*BuildModule, error) {
	ret := make([]*BuildModule, len(m.Dependencies))
	for i, name := range m.Dependencies {
		dep, err := m.set.Module(name)
		if err != nil {
			return nil, fmt.Errorf("dependency of %s: %w", m.Name, err)
		}
		ret[i] = dep
	}
	return ret, nil
}

// ClasspathModules returns the modules whose subtrees appear on this module's full classpaths.
// That's the direct dependencies, or all transitive ones if the set is configured that way.
func (m *BuildModule) ClasspathModules() ([]*BuildModule, error) {
	if m.set.TransitiveClasspath {
		return m.set.TransitiveDependencies(m.Name)
	}
	return m.DependentModules()
}

// InGroup returns true if this module belongs to the given group.
func (m *BuildModule) InGroup(group string) bool {
	if group == AllGroup {
		return true
	}
	for _, g := range m.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// SetSourceUpdated records that some of this module's source has been recompiled in this run.
func (m *BuildModule) SetSourceUpdated() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sourceUpdated = true
}

// SourceUpdated returns true if some of this module's source has been recompiled in this run.
func (m *BuildModule) SourceUpdated() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.sourceUpdated
}

// ResetSourceUpdated clears the flag set by SetSourceUpdated.
func (m *BuildModule) ResetSourceUpdated() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sourceUpdated = false
}

// sortedGroups returns this module's groups sorted and without duplicates.
func (m *BuildModule) sortedGroups() []string {
	groups := append([]string{}, m.Groups...)
	sort.Strings(groups)
	ret := groups[:0]
	for i, g := range groups {
		if i == 0 || g != groups[i-1] {
			ret = append(ret, g)
		}
	}
	return ret
}
