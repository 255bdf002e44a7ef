package test

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/fs"
	"github.com/tcbuild/tcbuild/src/target"
)

// allPattern selects every test class.
const allPattern = "**"

// A Selection is a set of test classes to run from one subtree.
type Selection struct {
	Subtree *core.BuildSubtree
	Type    core.TestType
	Classes []string
}

// A Selector chooses which test classes to run. Patterns that are given explicitly and don't
// match any class are recorded as mismatches rather than failing the selection.
type Selector struct {
	fs      fs.FS
	modules *core.BuildModuleSet
	results *core.BuildResults
	suffix  string

	mutex   sync.Mutex
	classes map[*core.BuildSubtree][]string
}

// NewSelector creates a new Selector. Test classes are the files ending in the given suffix.
func NewSelector(fsys fs.FS, modules *core.BuildModuleSet, results *core.BuildResults, suffix string) *Selector {
	return &Selector{
		fs:      fsys,
		modules: modules,
		results: results,
		suffix:  suffix,
		classes: map[*core.BuildSubtree][]string{},
	}
}

// All selects every test of the given type, or of every type if it's empty.
func (s *Selector) All(t core.TestType) ([]Selection, error) {
	return s.run(target.AllModules, target.TestSubtrees(t), []string{allPattern}, false)
}

// Module selects the tests of the given type in one module.
func (s *Selector) Module(module string, t core.TestType) ([]Selection, error) {
	if _, err := s.modules.Module(module); err != nil {
		return nil, err
	}
	return s.run(target.ModuleNamed(module), target.TestSubtrees(t), []string{allPattern}, false)
}

// Group selects the tests of the given type in every module in a group.
func (s *Selector) Group(group string, t core.TestType) ([]Selection, error) {
	if _, err := s.modules.Groups().Group(group); err != nil {
		return nil, err
	}
	return s.run(target.ModulesInGroup(group), target.TestSubtrees(t), []string{allPattern}, false)
}

// Patterns selects the tests matching any of the given patterns, in any module.
func (s *Selector) Patterns(patterns []string) ([]Selection, error) {
	return s.run(target.AllModules, target.TestSubtrees(""), patterns, true)
}

// One selects the tests matching a single pattern, optionally only in one module.
func (s *Selector) One(pattern, module string) ([]Selection, error) {
	if module == "" {
		return s.Patterns([]string{pattern})
	} else if _, err := s.modules.Module(module); err != nil {
		return nil, err
	}
	return s.run(target.ModuleNamed(module), target.TestSubtrees(""), []string{pattern}, true)
}

// File selects the tests matching the patterns listed in a file, one per line.
// Blank lines and lines starting with # are ignored.
func (s *Selector) File(filename string) ([]Selection, error) {
	data, err := s.fs.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read test list: %w", err)
	}
	patterns := []string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		s.results.AddMismatch("Test list %s doesn't contain any patterns", filename)
		return nil, nil
	}
	return s.Patterns(patterns)
}

func (s *Selector) run(modules target.ModuleFilter, subtrees target.SubtreeFilter, patterns []string, validate bool) ([]Selection, error) {
	parsed, err := ParsePatterns(patterns)
	if err != nil {
		return nil, err
	}
	// Repeated patterns are reduced to one so they can't look like they matched nothing.
	byString := make(map[string]*Pattern, len(parsed))
	unique := parsed[:0]
	for _, p := range parsed {
		if _, present := byString[p.String()]; present {
			log.Debug("Ignoring repeated test pattern %s", p)
			continue
		}
		byString[p.String()] = p
		unique = append(unique, p)
		if p.Module != "" {
			if _, err := s.modules.Module(p.Module); err != nil {
				return nil, fmt.Errorf("in test pattern %s: %w", p, err)
			}
		}
	}
	parsed = unique
	matched := map[*Pattern]int{}
	generator := func(st *core.BuildSubtree) []string {
		ret := []string{}
		for _, p := range parsed {
			if p.AppliesTo(st.Module.Name) {
				ret = append(ret, p.String())
			}
		}
		return ret
	}
	selections := []Selection{}
	err = target.RunOnSubtrees(s.modules, modules, subtrees, generator, func(st *core.BuildSubtree, patterns []string) error {
		classes, err := s.testClasses(st)
		if err != nil {
			return err
		}
		selected := []string{}
		for _, class := range classes {
			// Every matching pattern is credited, but the class is only selected once.
			found := false
			for _, ps := range patterns {
				if p := byString[ps]; p.Match(class) {
					matched[p]++
					if !found {
						selected = append(selected, class)
						found = true
					}
				}
			}
		}
		if len(selected) > 0 {
			tt, _ := st.TestType()
			selections = append(selections, Selection{Subtree: st, Type: tt, Classes: selected})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if validate {
		for _, p := range parsed {
			if matched[p] == 0 {
				s.results.AddMismatch("Test pattern %s didn't match any test classes", p)
			}
		}
	}
	return selections, nil
}

// testClasses returns the test classes in a subtree. They're only looked up once per subtree.
func (s *Selector) testClasses(st *core.BuildSubtree) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if classes, present := s.classes[st]; present {
		return classes, nil
	}
	classes, err := FindTestClasses(s.fs, st, s.suffix)
	if err != nil {
		return nil, err
	}
	log.Debug("Found %d test classes in %s", len(classes), st)
	s.classes[st] = classes
	return classes, nil
}

// Count returns the total number of classes in a set of selections.
func Count(selections []Selection) int {
	n := 0
	for _, sel := range selections {
		n += len(sel.Classes)
	}
	return n
}
