package target

import (
	"github.com/tcbuild/tcbuild/src/core"
)

// A ModuleFilter selects modules.
type ModuleFilter func(m *core.BuildModule) bool

// A SubtreeFilter selects subtrees.
type SubtreeFilter func(st *core.BuildSubtree) bool

// A PatternGenerator returns the test patterns to run in a subtree. An empty result means
// there's nothing to run there.
type PatternGenerator func(st *core.BuildSubtree) []string

// RunOnSubtrees calls the callback once for each subtree, in module declaration order and then
// subtree order, that both filters accept and that the generator returns patterns for.
// It doesn't run anything itself; all test selection is built on it. It stops at the first
// error the callback returns.
func RunOnSubtrees(set *core.BuildModuleSet, modules ModuleFilter, subtrees SubtreeFilter, patterns PatternGenerator, callback func(st *core.BuildSubtree, patterns []string) error) error {
	for _, m := range set.Modules() {
		if !modules(m) {
			continue
		}
		for _, st := range m.Subtrees() {
			if !subtrees(st) {
				continue
			}
			if p := patterns(st); len(p) > 0 {
				if err := callback(st, p); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// AllModules is a ModuleFilter accepting every module.
func AllModules(m *core.BuildModule) bool {
	return true
}

// ModuleNamed returns a ModuleFilter accepting only the named module.
func ModuleNamed(name string) ModuleFilter {
	return func(m *core.BuildModule) bool {
		return m.Name == name
	}
}

// ModulesInGroup returns a ModuleFilter accepting the modules in the given group.
func ModulesInGroup(group string) ModuleFilter {
	return func(m *core.BuildModule) bool {
		return m.InGroup(group)
	}
}

// TestSubtrees returns a SubtreeFilter accepting subtrees with tests of the given type,
// or of any type if it's empty. Subtrees without source are never accepted.
func TestSubtrees(t core.TestType) SubtreeFilter {
	return func(st *core.BuildSubtree) bool {
		tt, ok := st.TestType()
		return ok && st.SourceExists() && (t == "" || tt == t)
	}
}

// FixedPatterns returns a PatternGenerator that gives the same patterns for every subtree.
func FixedPatterns(patterns ...string) PatternGenerator {
	return func(st *core.BuildSubtree) []string {
		return patterns
	}
}
