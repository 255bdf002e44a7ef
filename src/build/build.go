// Package build implements tcbuild's targets: compiling modules, running their tests,
// packaging kits and describing the module set.
package build

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/tcbuild/tcbuild/src/cli/logging"
	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/target"
	"github.com/tcbuild/tcbuild/src/test"
)

var log = logging.Log

// ErrBuildFailed is returned by targets that can't continue because something they
// depend on failed. The individual failures are recorded in the build results.
var ErrBuildFailed = errors.New("build failed")

// A Builder owns the targets for one run.
type Builder struct {
	ctx        context.Context
	bc         *core.BuildContext
	out        io.Writer
	registry   *target.Registry
	dispatcher *target.Dispatcher
	selector   *test.Selector

	mutex  sync.Mutex
	// failed holds the modules that didn't compile in the current run.
	failed map[string]bool
}

// New creates a Builder and registers all of its targets. Anything the targets print
// (e.g. show_classpath) goes to out.
func New(ctx context.Context, bc *core.BuildContext, out io.Writer) *Builder {
	b := &Builder{
		ctx:      ctx,
		bc:       bc,
		out:      out,
		registry: target.NewRegistry(),
		selector: test.NewSelector(bc.FS, bc.Modules, bc.Results, bc.Config.Test.ClassSuffix),
		failed:   map[string]bool{},
	}
	b.dispatcher = target.NewDispatcher(b.registry)
	b.dispatcher.Groups = bc.Modules.Groups()
	b.registerTargets()
	return b
}

// Dispatcher returns the dispatcher that runs this builder's targets.
func (b *Builder) Dispatcher() *target.Dispatcher {
	return b.dispatcher
}

// Registry returns the registry holding this builder's targets.
func (b *Builder) Registry() *target.Registry {
	return b.registry
}

// Run runs the given targets, given as they were on the command line.
func (b *Builder) Run(args []string) error {
	invocations, err := b.dispatcher.SplitInvocations(args)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	b.failed = map[string]bool{}
	b.mutex.Unlock()
	return b.dispatcher.Run(invocations...)
}

func (b *Builder) registerTargets() {
	optionalType := target.Param{Name: "type", Kind: target.TestTypeParam, Optional: true}
	for _, t := range []*target.Target{
		{
			Name:        "init",
			Description: "Creates the output directory",
			Handler:     b.initTarget,
		},
		{
			Name:        "resolve_dependencies",
			Description: "Populates the modules' library directories",
			Handler:     b.resolveDependencies,
		},
		{
			Name:        "compile",
			Description: "Compiles every module",
			Handler:     b.compile,
		},
		{
			Name:        "compile_module",
			Description: "Compiles one module and the modules it depends on",
			Params:      []target.Param{{Name: "module", Kind: target.ModuleParam}},
			Handler:     b.compileModule,
		},
		{
			Name:        "check",
			Description: "Runs every test in every module",
			Handler:     b.check,
		},
		{
			Name:        "check_module",
			Description: "Runs the tests in one module",
			Params:      []target.Param{{Name: "module", Kind: target.ModuleParam}, optionalType},
			Handler:     b.checkModule,
		},
		{
			Name:        "check_group",
			Description: "Runs the tests in every module of a group",
			Params:      []target.Param{{Name: "group", Kind: target.GroupParam}, optionalType},
			Handler:     b.checkGroup,
		},
		{
			Name:        "check_type",
			Description: "Runs every test of one type",
			Params:      []target.Param{{Name: "type", Kind: target.TestTypeParam}},
			Handler:     b.checkType,
		},
		{
			Name:        "check_list",
			Description: "Runs the tests in a configured test list",
			Params:      []target.Param{{Name: "list", Kind: target.NameParam}},
			Handler:     b.checkList,
		},
		{
			Name:        "check_file",
			Description: "Runs the tests matching the patterns in a file",
			Params:      []target.Param{{Name: "file", Kind: target.NameParam}},
			Handler:     b.checkFile,
		},
		{
			Name:        "check_one",
			Description: "Runs the tests matching a pattern, optionally in one module",
			Params:      []target.Param{{Name: "pattern", Kind: target.NameParam}, {Name: "module", Kind: target.ModuleParam, Optional: true}},
			Handler:     b.checkOne,
		},
		{
			Name:        "dist",
			Description: "Creates every configured kit",
			Handler:     b.dist,
		},
		{
			Name:        "create_package",
			Description: "Creates a kit",
			Params:      []target.Param{{Name: "kit", Kind: target.NameParam}},
			Handler:     b.createPackage,
		},
		{
			Name:        "publish_package",
			Description: "Creates a kit and publishes it",
			Params:      []target.Param{{Name: "kit", Kind: target.NameParam}},
			Handler:     b.publishPackage,
		},
		{
			Name:        "show_modules",
			Description: "Lists the modules with their dependencies and groups",
			Handler:     b.showModules,
		},
		{
			Name:        "show_groups",
			Description: "Lists the module groups and their members",
			Handler:     b.showGroups,
		},
		{
			Name:        "show_classpath",
			Description: "Prints the classpath of a subtree",
			Params: []target.Param{
				{Name: "module", Kind: target.ModuleParam},
				{Name: "subtree", Kind: target.SubtreeParam},
				{Name: "type", Kind: target.ClasspathTypeParam, Optional: true},
			},
			Handler: b.showClasspath,
		},
		{
			Name:        "targets",
			Description: "Lists the available targets",
			Handler:     b.showTargets,
		},
		{
			Name:        "clean",
			Description: "Removes the output directory",
			Handler:     b.clean,
		},
	} {
		b.registry.Register(t)
	}
}
