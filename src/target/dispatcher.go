package target

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tcbuild/tcbuild/src/core"
)

// An Invocation is a target name and the arguments it was given.
type Invocation struct {
	Name string
	Args []string
}

// String returns the invocation as it would be typed on the command line.
func (inv Invocation) String() string {
	return strings.Join(append([]string{inv.Name}, inv.Args...), " ")
}

// key identifies an invocation in the set of ones that have run.
func (inv Invocation) key() string {
	return inv.Name + "(" + strings.Join(inv.Args, ",") + ")"
}

// A GroupSet is something that knows which module groups exist; core.ModuleGroups is one.
type GroupSet interface {
	Has(name string) bool
	Names() []string
}

// An Observer is told about every target that runs.
type Observer func(inv Invocation, duration time.Duration, err error)

// A Dispatcher invokes targets, making sure each one runs at most once per top-level run no
// matter how many other targets depend on it.
type Dispatcher struct {
	registry *Registry
	// Groups, if set, is used to reject synthesised targets naming a group that doesn't exist.
	Groups GroupSet
	// Observer, if set, is called after each target runs.
	Observer Observer

	mutex sync.Mutex
	run   map[string]bool
}

// NewDispatcher returns a new Dispatcher for the targets in the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry, run: map[string]bool{}}
}

// Run starts a new top-level run and invokes each of the given targets in order.
// It stops at the first error.
func (d *Dispatcher) Run(invocations ...Invocation) error {
	d.Reset()
	for _, inv := range invocations {
		if err := d.Invoke(inv.Name, inv.Args...); err != nil {
			return err
		}
	}
	return nil
}

// Reset forgets which targets have run.
func (d *Dispatcher) Reset() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.run = map[string]bool{}
}

// Depends invokes each of the named targets, with no arguments, unless it's already run.
func (d *Dispatcher) Depends(names ...string) error {
	for _, name := range names {
		if err := d.Invoke(name); err != nil {
			return err
		}
	}
	return nil
}

// Invoke runs a target with the given arguments unless it's already run in this top-level run.
// Unregistered names are resolved to registered targets via ParseSpec.
func (d *Dispatcher) Invoke(name string, args ...string) error {
	t, inv, err := d.resolve(name, args)
	if err != nil {
		return err
	}
	bound, err := t.bind(inv.Args)
	if err != nil {
		return err
	}
	if !d.markRun(inv) {
		log.Debug("Target %s has already run", inv)
		return nil
	}
	log.Info("Running target %s", inv)
	start := time.Now()
	err = t.Handler(bound)
	if d.Observer != nil {
		d.Observer(inv, time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", inv, err)
	}
	return nil
}

// HasRun returns true if the given invocation has already run in this top-level run.
func (d *Dispatcher) HasRun(name string, args ...string) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.run[Invocation{Name: name, Args: args}.key()]
}

// markRun records an invocation as run. It returns false if it already had been.
// Targets are marked before they run so that a dependency cycle between them terminates.
func (d *Dispatcher) markRun(inv Invocation) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	key := inv.key()
	if d.run[key] {
		return false
	}
	d.run[key] = true
	return true
}

// resolve finds the target for a name, synthesising it if it isn't registered.
func (d *Dispatcher) resolve(name string, args []string) (*Target, Invocation, error) {
	if t, present := d.registry.Lookup(name); present {
		return t, Invocation{Name: name, Args: args}, nil
	}
	spec, ok := ParseSpec(name)
	if !ok {
		return nil, Invocation{}, d.registry.noSuchTarget(name)
	}
	if d.Groups != nil && spec.Group != "" && !d.Groups.Has(spec.Group) {
		return nil, Invocation{}, d.noSuchGroup(name, spec)
	}
	resolved, resolvedArgs := spec.Resolve()
	t, present := d.registry.Lookup(resolved)
	if !present {
		return nil, Invocation{}, d.registry.noSuchTarget(name)
	}
	if len(args) > 0 {
		return nil, Invocation{}, &ArgumentError{Target: name, Got: len(args), Usage: name}
	}
	log.Debug("Resolved %s to %s %s", name, resolved, strings.Join(resolvedArgs, " "))
	return t, Invocation{Name: resolved, Args: resolvedArgs}, nil
}

func (d *Dispatcher) noSuchGroup(name string, spec TargetSpec) error {
	// Suggest both groups and targets since either could be what was meant.
	groupErr := fmt.Errorf("%w: %s", core.ErrNoSuchGroup, spec.Group)
	if len(d.Groups.Names()) > 0 {
		groupErr = fmt.Errorf("%w (groups are %s; test types are %s)", groupErr, strings.Join(d.Groups.Names(), ", "), core.TestTypeList())
	}
	return fmt.Errorf("%w, %w", d.registry.noSuchTarget(name), groupErr)
}

// IsTarget returns true if the given name is a registered target or can be synthesised.
func (d *Dispatcher) IsTarget(name string) bool {
	if _, present := d.registry.Lookup(name); present {
		return true
	}
	_, ok := ParseSpec(name)
	return ok
}

// SplitInvocations splits command-line arguments into invocations. A target takes the arguments
// after it up to its required count unconditionally; after that an optional argument is taken
// if it's a valid value for that parameter, otherwise an argument naming a target starts a new
// invocation.
func (d *Dispatcher) SplitInvocations(args []string) ([]Invocation, error) {
	invocations := []Invocation{}
	var current *Target
	for _, arg := range args {
		if len(invocations) > 0 {
			last := &invocations[len(invocations)-1]
			if current.accepts(len(last.Args), arg, d.IsTarget(arg)) {
				last.Args = append(last.Args, arg)
				continue
			}
		}
		if !d.IsTarget(arg) {
			if len(invocations) == 0 {
				return nil, d.registry.noSuchTarget(arg)
			}
			// Let binding report the surplus argument.
			last := &invocations[len(invocations)-1]
			last.Args = append(last.Args, arg)
			continue
		}
		invocations = append(invocations, Invocation{Name: arg})
		// Synthesised targets take no arguments, which a nil target also gives.
		current, _ = d.registry.Lookup(arg)
	}
	return invocations, nil
}

// accepts returns true if the given argument should be taken as this target's next one,
// given it has already taken n.
func (t *Target) accepts(n int, arg string, isTarget bool) bool {
	if t == nil {
		return false
	}
	min, max := t.arity()
	if n < min {
		return true
	} else if max >= 0 && n >= max {
		return false
	}
	p := t.Params[len(t.Params)-1]
	if n < len(t.Params) {
		p = t.Params[n]
	}
	switch p.Kind {
	case TestTypeParam:
		_, err := core.ParseTestType(arg)
		return err == nil
	case ClasspathTypeParam:
		_, ok := core.ParseClasspathType(arg)
		return ok
	default:
		return !isTarget
	}
}
