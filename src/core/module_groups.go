package core

// AllGroup is the name of the group that always contains every module.
const AllGroup = "all"

// ModuleGroups maps group names to the modules in them. It's a secondary index over a
// BuildModuleSet; groups are independent of one another and callers only ever see copies.
type ModuleGroups struct {
	groups map[string][]*BuildModule
	order  []string
}

func newModuleGroups() *ModuleGroups {
	return &ModuleGroups{
		groups: map[string][]*BuildModule{AllGroup: {}},
		order:  []string{AllGroup},
	}
}

func (g *ModuleGroups) addToAll(m *BuildModule) {
	g.groups[AllGroup] = append(g.groups[AllGroup], m)
}

// add appends a module to a group, creating it if needed. Modules already in it are skipped.
func (g *ModuleGroups) add(name string, m *BuildModule) {
	existing, present := g.groups[name]
	if !present {
		g.order = append(g.order, name)
	}
	for _, e := range existing {
		if e == m {
			return
		}
	}
	g.groups[name] = append(existing, m)
}

// Group returns the modules in the named group, in the order they were added.
// The returned slice is a copy and can be modified freely.
func (g *ModuleGroups) Group(name string) ([]*BuildModule, error) {
	modules, present := g.groups[name]
	if !present {
		return nil, lookupError(ErrNoSuchGroup, name, g.Names())
	}
	return append([]*BuildModule{}, modules...), nil
}

// Has returns true if the named group exists.
func (g *ModuleGroups) Has(name string) bool {
	_, present := g.groups[name]
	return present
}

// Names returns the group names in the order they were first seen; "all" is always first.
func (g *ModuleGroups) Names() []string {
	return append([]string{}, g.order...)
}
