// Package target implements tcbuild's targets: named, typed operations that can be invoked
// from the command line or depended on by other targets, each running at most once per run.
package target

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tcbuild/tcbuild/src/cli"
	"github.com/tcbuild/tcbuild/src/cli/logging"
	"github.com/tcbuild/tcbuild/src/core"
)

var log = logging.Log

// ErrNoSuchTarget is returned when invoking a target that isn't registered and can't be synthesised.
var ErrNoSuchTarget = errors.New("no such target")

// maxSuggestionDistance is how far off a target name can be before we stop suggesting it.
const maxSuggestionDistance = 4

// A ParamKind says how a positional argument is interpreted.
type ParamKind int

// The kinds of parameter a target can take.
const (
	ModuleParam ParamKind = iota
	GroupParam
	TestTypeParam
	NameParam
	SubtreeParam
	ClasspathTypeParam
	// PatternsParam takes all remaining arguments; it can only be the last parameter.
	PatternsParam
)

// A Param describes one positional parameter of a target.
type Param struct {
	Name     string
	Kind     ParamKind
	Optional bool
}

// Args are the arguments a target is invoked with. Positional arguments are bound to the
// typed fields according to the target's parameters.
type Args struct {
	Positional    []string
	Module        string
	Group         string
	Type          core.TestType
	Name          string
	Subtree       string
	ClasspathType core.ClasspathType
	Patterns      []string
}

// A Handler implements a target.
type Handler func(args Args) error

// A Target is a named operation.
type Target struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// arity returns the minimum and maximum number of positional arguments this target accepts.
// The maximum is -1 if there's no limit.
func (t *Target) arity() (int, int) {
	min := 0
	for _, p := range t.Params {
		if !p.Optional {
			min++
		}
		if p.Kind == PatternsParam {
			return min, -1
		}
	}
	return min, len(t.Params)
}

// Usage returns a one-line description of how to invoke this target.
func (t *Target) Usage() string {
	var sb strings.Builder
	sb.WriteString(t.Name)
	for _, p := range t.Params {
		name := p.Name
		if p.Kind == PatternsParam {
			name += "..."
		}
		if p.Optional {
			sb.WriteString(" [" + name + "]")
		} else {
			sb.WriteString(" <" + name + ">")
		}
	}
	return sb.String()
}

// bind checks the number of arguments and binds them to the typed fields.
func (t *Target) bind(args []string) (Args, error) {
	min, max := t.arity()
	if len(args) < min || (max >= 0 && len(args) > max) {
		return Args{}, &ArgumentError{Target: t.Name, Min: min, Max: max, Got: len(args), Usage: t.Usage()}
	}
	bound := Args{Positional: append([]string{}, args...)}
	for i, p := range t.Params {
		if i >= len(args) {
			break
		}
		arg := args[i]
		switch p.Kind {
		case ModuleParam:
			bound.Module = arg
		case GroupParam:
			bound.Group = arg
		case TestTypeParam:
			tt, err := core.ParseTestType(arg)
			if err != nil {
				return Args{}, fmt.Errorf("argument %s of %s: %w", p.Name, t.Name, err)
			}
			bound.Type = tt
		case NameParam:
			bound.Name = arg
		case SubtreeParam:
			bound.Subtree = arg
		case ClasspathTypeParam:
			ct, ok := core.ParseClasspathType(arg)
			if !ok {
				return Args{}, fmt.Errorf("argument %s of %s must be compile or runtime, not %s", p.Name, t.Name, arg)
			}
			bound.ClasspathType = ct
		case PatternsParam:
			bound.Patterns = append([]string{}, args[i:]...)
		}
	}
	return bound, nil
}

// An ArgumentError is returned when a target is invoked with the wrong number of arguments.
type ArgumentError struct {
	Target   string
	Min, Max int
	Got      int
	Usage    string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	var expected string
	switch {
	case e.Max < 0:
		expected = fmt.Sprintf("at least %d", e.Min)
	case e.Min == e.Max:
		expected = fmt.Sprintf("%d", e.Min)
	default:
		expected = fmt.Sprintf("%d to %d", e.Min, e.Max)
	}
	return fmt.Sprintf("wrong number of arguments for %s: expected %s, got %d (usage: %s)", e.Target, expected, e.Got, e.Usage)
}

// A Registry holds all the known targets.
type Registry struct {
	targets map[string]*Target
}

// NewRegistry returns a new, empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: map[string]*Target{}}
}

// Register adds a target. It panics if the name is taken or the parameters don't make sense,
// since both are programming errors.
func (r *Registry) Register(t *Target) {
	if _, present := r.targets[t.Name]; present {
		panic("target " + t.Name + " registered twice")
	}
	for i, p := range t.Params {
		if p.Kind == PatternsParam && i != len(t.Params)-1 {
			panic("target " + t.Name + " has a patterns parameter that isn't last")
		} else if i > 0 && t.Params[i-1].Optional && !p.Optional {
			panic("target " + t.Name + " has a required parameter after an optional one")
		}
	}
	r.targets[t.Name] = t
}

// Lookup returns the target with the given name, if one is registered.
func (r *Registry) Lookup(name string) (*Target, bool) {
	t, present := r.targets[name]
	return t, present
}

// Names returns the names of all registered targets, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Targets returns all the registered targets, sorted by name.
func (r *Registry) Targets() []*Target {
	names := r.Names()
	targets := make([]*Target, len(names))
	for i, name := range names {
		targets[i] = r.targets[name]
	}
	return targets
}

// noSuchTarget returns an error for an unknown target, suggesting similar ones.
func (r *Registry) noSuchTarget(name string) error {
	return fmt.Errorf("%w: %s%s", ErrNoSuchTarget, name, cli.PrettyPrintSuggestion(name, r.Names(), maxSuggestionDistance))
}
