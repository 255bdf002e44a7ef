package build

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/fs"
	"github.com/tcbuild/tcbuild/src/target"
)

func (b *Builder) initTarget(args target.Args) error {
	log.Debug("Creating output directory %s", b.bc.Layout.OutputDir)
	return os.MkdirAll(b.bc.Layout.OutputDir, fs.DirPermissions)
}

func (b *Builder) resolveDependencies(args target.Args) error {
	if b.bc.Resolver == nil {
		return nil
	}
	start := time.Now()
	err := b.bc.Resolver.Resolve(b.ctx, b.bc.Modules)
	b.bc.Results.Add(core.Result{Kind: core.ResolveResult, Name: "dependencies", Duration: time.Since(start), Err: err})
	if err != nil {
		return fmt.Errorf("%w: failed to resolve dependencies", ErrBuildFailed)
	}
	return nil
}

// compile compiles every module. A module that fails doesn't stop the others; only the ones
// depending on it are skipped.
func (b *Builder) compile(args target.Args) error {
	if err := b.dispatcher.Depends("init", "resolve_dependencies"); err != nil {
		return err
	}
	for _, m := range b.bc.Modules.Modules() {
		if err := b.dispatcher.Invoke("compile_module", m.Name); err != nil && !errors.Is(err, ErrBuildFailed) {
			return err
		}
	}
	if failed := b.failedModules(); len(failed) > 0 {
		return fmt.Errorf("%w: %s didn't compile", ErrBuildFailed, strings.Join(failed, ", "))
	}
	return nil
}

// compileModule compiles the modules that the given one depends on, then each of its subtrees in order.
// A subtree failing stops the rest of its module, since later subtrees build on the earlier ones.
func (b *Builder) compileModule(args target.Args) error {
	if err := b.dispatcher.Depends("init", "resolve_dependencies"); err != nil {
		return err
	}
	m, err := b.bc.Modules.Module(args.Module)
	if err != nil {
		return err
	}
	deps, err := m.DependentModules()
	if err != nil {
		return err
	}
	for _, dep := range deps {
		if err := b.dispatcher.Invoke("compile_module", dep.Name); err != nil && !errors.Is(err, ErrBuildFailed) {
			return err
		}
	}
	for _, dep := range deps {
		if b.moduleFailed(dep.Name) {
			b.markFailed(m.Name)
			log.Warning("Not compiling %s since %s didn't compile", m.Name, dep.Name)
			return fmt.Errorf("%w: %s depends on %s which didn't compile", ErrBuildFailed, m.Name, dep.Name)
		}
	}
	jdk, err := b.bc.JDKFor(m)
	if err != nil {
		return err
	}
	for _, st := range m.Subtrees() {
		if !st.SourceExists() {
			continue
		}
		if err := b.compileSubtree(st, jdk); err != nil {
			if errors.Is(err, ErrBuildFailed) {
				b.markFailed(m.Name)
			}
			return err
		}
	}
	return nil
}

func (b *Builder) markFailed(module string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.failed[module] = true
}

func (b *Builder) moduleFailed(module string) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.failed[module]
}

// failedModules returns the names of the modules that failed to compile in this run, sorted.
func (b *Builder) failedModules() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	failed := make([]string, 0, len(b.failed))
	for name := range b.failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	return failed
}

func (b *Builder) compileSubtree(st *core.BuildSubtree, jdk *core.JDK) error {
	sources, err := b.sources(st)
	if err != nil {
		return err
	} else if len(sources) == 0 {
		log.Debug("No sources in %s", st)
		return nil
	}
	classpath, err := b.bc.Classpath(st, core.Full, core.CompileClasspath)
	if err != nil {
		return err
	}
	log.Notice("Compiling %s (%d files)", st, len(sources))
	log.Debug("Classpath for %s: %s", st, classpath)
	start := time.Now()
	produced, err := b.bc.Compiler.Compile(b.ctx, core.CompileRequest{
		Subtree:   st,
		JDK:       jdk,
		Sources:   sources,
		Classpath: classpath,
		OutputDir: st.ClassesDir(),
		WorkDir:   st.Module.Root,
	})
	duration := time.Since(start)
	b.bc.Metrics.RecordCompile(st.String(), duration, err)
	b.bc.Results.Add(core.Result{Kind: core.CompileResult, Name: st.String(), Duration: duration, Err: err})
	if err != nil {
		return fmt.Errorf("%w: %s didn't compile", ErrBuildFailed, st)
	} else if produced {
		st.Module.SetSourceUpdated()
	}
	return nil
}

// sources returns the Java source files in a subtree.
func (b *Builder) sources(st *core.BuildSubtree) ([]string, error) {
	sources := []string{}
	err := b.bc.FS.Walk(st.SourceRoot(), func(name string, isDir bool) error {
		if !isDir && strings.HasSuffix(name, ".java") {
			sources = append(sources, name)
		}
		return nil
	})
	return sources, err
}
