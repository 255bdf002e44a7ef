package core

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/tcbuild/tcbuild/src/fs"
)

// A BuildModuleSet holds every module in the repository, in declaration order, along with the
// module groups they're tagged with.
type BuildModuleSet struct {
	// FS is used to probe for source and library directories as modules are added.
	FS fs.FS
	// Layout says where build outputs go.
	Layout Layout
	// TransitiveClasspath makes full classpaths cover all transitive module dependencies rather
	// than only the ones each module declares directly.
	TransitiveClasspath bool

	modules []*BuildModule
	byName  map[string]*BuildModule
	groups  *ModuleGroups
}

// NewBuildModuleSet creates a new, empty module set.
func NewBuildModuleSet(fsys fs.FS, layout Layout) *BuildModuleSet {
	return &BuildModuleSet{
		FS:     fsys,
		Layout: layout,
		byName: map[string]*BuildModule{},
		groups: newModuleGroups(),
	}
}

// Add creates a new module from the given definition and adds it to the set.
// It's an error for two modules to have the same name.
func (set *BuildModuleSet) Add(def ModuleDefinition) (*BuildModule, error) {
	if existing, present := set.byName[def.Name]; present {
		return nil, fmt.Errorf("%w: %s is defined at both %s and %s", ErrDuplicateModule, def.Name, existing.Root, def.Root)
	}
	m, err := newBuildModule(set, def)
	if err != nil {
		return nil, err
	}
	set.modules = append(set.modules, m)
	set.byName[m.Name] = m
	set.groups.addToAll(m)
	for _, group := range m.sortedGroups() {
		set.groups.add(group, m)
	}
	log.Debug("Added module %s at %s", m.Name, m.Root)
	return m, nil
}

// Module returns the module with the given name.
func (set *BuildModuleSet) Module(name string) (*BuildModule, error) {
	if m, present := set.byName[name]; present {
		return m, nil
	}
	return nil, lookupError(ErrNoSuchModule, name, set.Names())
}

// Modules returns all the modules in declaration order.
func (set *BuildModuleSet) Modules() []*BuildModule {
	return append([]*BuildModule{}, set.modules...)
}

// Names returns the names of all the modules in declaration order.
func (set *BuildModuleSet) Names() []string {
	names := make([]string, len(set.modules))
	for i, m := range set.modules {
		names[i] = m.Name
	}
	return names
}

// Len returns the number of modules in the set.
func (set *BuildModuleSet) Len() int {
	return len(set.modules)
}

// Groups returns the module groups of this set.
func (set *BuildModuleSet) Groups() *ModuleGroups {
	return set.groups
}

// TagModule adds a module to a group. Groups are created as needed.
func (set *BuildModuleSet) TagModule(group, module string) error {
	m, err := set.Module(module)
	if err != nil {
		return fmt.Errorf("in module group %s: %w", group, err)
	}
	if group == AllGroup {
		return nil
	}
	if !m.InGroup(group) {
		m.Groups = append(m.Groups, group)
	}
	set.groups.add(group, m)
	return nil
}

// TransitiveDependencies returns every module the named module depends on, directly or not.
// Dependencies are ordered depth-first by declaration order, each appearing once at the point
// it's first reached. A cycle anywhere below the module is returned as a *CycleError.
func (set *BuildModuleSet) TransitiveDependencies(name string) ([]*BuildModule, error) {
	m, err := set.Module(name)
	if err != nil {
		return nil, err
	}
	if err := set.checkCycles(); err != nil {
		return nil, err
	}
	seen := map[string]bool{m.Name: true}
	ret := []*BuildModule{}
	var visit func(m *BuildModule) error
	visit = func(m *BuildModule) error {
		deps, err := m.DependentModules()
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if !seen[dep.Name] {
				seen[dep.Name] = true
				ret = append(ret, dep)
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return ret, visit(m)
}

// checkCycles returns an error if the declared module dependencies contain a cycle.
// Names that don't resolve are ignored here; Validate reports those.
func (set *BuildModuleSet) checkCycles() error {
	detector := newCycleDetector()
	for _, m := range set.modules {
		for _, dep := range m.Dependencies {
			if _, present := set.byName[dep]; !present {
				continue
			}
			if err := detector.addDep(m.Name, dep); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks that every declared dependency names a module in the set and that there are
// no dependency cycles. All problems are reported together.
func (set *BuildModuleSet) Validate() error {
	var errs *multierror.Error
	for _, m := range set.modules {
		for _, dep := range m.Dependencies {
			if _, err := set.Module(dep); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("dependency of %s: %w", m.Name, err))
			}
		}
	}
	if err := set.checkCycles(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}
