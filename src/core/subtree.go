package core

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/tcbuild/tcbuild/src/fs"
)

// Names of the four subtrees every module has.
const (
	SrcSubtree         = "src"
	TestsBaseSubtree   = "tests.base"
	TestsUnitSubtree   = "tests.unit"
	TestsSystemSubtree = "tests.system"
)

// A ClasspathType selects which libraries are added to a classpath.
type ClasspathType int

// The classpath types. Type-specific libraries extend the common ones, they never replace them.
const (
	CompileClasspath ClasspathType = iota
	RuntimeClasspath
)

// String implements the fmt.Stringer interface.
func (t ClasspathType) String() string {
	if t == RuntimeClasspath {
		return "runtime"
	}
	return "compile"
}

// ParseClasspathType converts "compile" or "runtime" into a ClasspathType.
func ParseClasspathType(s string) (ClasspathType, bool) {
	switch s {
	case "compile":
		return CompileClasspath, true
	case "runtime":
		return RuntimeClasspath, true
	}
	return CompileClasspath, false
}

// A ClasspathScope selects how far a classpath reaches.
type ClasspathScope int

const (
	// ModuleOnly covers a subtree and the subtrees it depends on within its own module.
	ModuleOnly ClasspathScope = iota
	// Full additionally covers the relevant subtree of each module the owning module depends on.
	Full
)

// subtreeSpec is the fixed shape of one of the canonical subtrees.
type subtreeSpec struct {
	name string
	// internalDependencies are the subtrees in the same module this one can see.
	internalDependencies []string
	// externalDependencyLike is the subtree of each dependency module that this one compiles against.
	externalDependencyLike string
}

// canonicalSubtrees are the subtrees created for every module, in the order they're processed.
var canonicalSubtrees = []subtreeSpec{
	{name: SrcSubtree, externalDependencyLike: SrcSubtree},
	{name: TestsBaseSubtree, internalDependencies: []string{SrcSubtree}, externalDependencyLike: TestsBaseSubtree},
	{name: TestsUnitSubtree, internalDependencies: []string{SrcSubtree, TestsBaseSubtree}, externalDependencyLike: TestsBaseSubtree},
	{name: TestsSystemSubtree, internalDependencies: []string{SrcSubtree, TestsBaseSubtree}, externalDependencyLike: TestsBaseSubtree},
}

// CanonicalSubtreeNames returns the names of the subtrees every module has, in processing order.
func CanonicalSubtreeNames() []string {
	names := make([]string, len(canonicalSubtrees))
	for i, spec := range canonicalSubtrees {
		names[i] = spec.name
	}
	return names
}

// A BuildSubtree is the smallest compilable unit: one of the four source trees of a module.
// It's immutable once created; whether its source and library directories exist is probed
// once, when it's constructed.
type BuildSubtree struct {
	Module *BuildModule
	Name   string
	// InternalDependencies names the subtrees of the same module this one can see.
	InternalDependencies []string
	// ExternalDependencyLike names the subtree of each dependency module this one can see.
	ExternalDependencyLike string

	sourceExists, resourcesExist bool
	// libraryRoots are the names of the library directories that exist, keyed by classpath
	// type; the common root has key -1.
	libraryRoots map[ClasspathType]string
	commonLibraryRoot string
	// variants maps variant name -> value -> library directory.
	variants map[string]map[string]string
}

const commonLibraries ClasspathType = -1

func newBuildSubtree(module *BuildModule, spec subtreeSpec) *BuildSubtree {
	st := &BuildSubtree{
		Module:                 module,
		Name:                   spec.name,
		InternalDependencies:   spec.internalDependencies,
		ExternalDependencyLike: spec.externalDependencyLike,
		libraryRoots:           map[ClasspathType]string{},
		variants:               map[string]map[string]string{},
	}
	fsys := module.fs()
	st.sourceExists = fsys.IsDir(st.SourceRoot())
	st.resourcesExist = fsys.IsDir(st.ResourcesRoot())
	if root := st.libraryRootPath(commonLibraries); fsys.IsDir(root) {
		st.commonLibraryRoot = root
	}
	for _, t := range []ClasspathType{CompileClasspath, RuntimeClasspath} {
		if root := st.libraryRootPath(t); fsys.IsDir(root) {
			st.libraryRoots[t] = root
		}
	}
	st.discoverVariants(fsys)
	return st
}

// libraryRootName returns the name of this subtree's library directory for the given type,
// e.g. lib, lib.tests.unit or lib.tests.unit.runtime.
func (st *BuildSubtree) libraryRootName(t ClasspathType) string {
	name := "lib"
	if st.Name != SrcSubtree {
		name += "." + st.Name
	}
	if t != commonLibraries {
		name += "." + t.String()
	}
	return name
}

func (st *BuildSubtree) libraryRootPath(t ClasspathType) string {
	return fs.NewFilePath(st.Module.Root, st.libraryRootName(t)).String()
}

// discoverVariants finds directories named <library root>.variants.<name>.<value>.
func (st *BuildSubtree) discoverVariants(fsys fs.FS) {
	prefix := st.libraryRootName(commonLibraries) + ".variants."
	entries, err := fsys.ReadDir(st.Module.Root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry, prefix) {
			continue
		}
		name, value, found := strings.Cut(strings.TrimPrefix(entry, prefix), ".")
		if !found || name == "" || value == "" {
			log.Warning("Ignoring badly named variant library directory %s in %s", entry, st.Module.Name)
			continue
		}
		path := filepath.Join(st.Module.Root, entry)
		if !fsys.IsDir(path) {
			continue
		}
		if st.variants[name] == nil {
			st.variants[name] = map[string]string{}
		}
		st.variants[name][value] = path
	}
}

// String implements the fmt.Stringer interface.
func (st *BuildSubtree) String() string {
	return st.Module.Name + "/" + st.Name
}

// SourceRoot returns the directory containing this subtree's Java sources.
func (st *BuildSubtree) SourceRoot() string {
	return fs.NewFilePath(st.Module.Root, st.Name).String()
}

// ResourcesRoot returns the directory containing this subtree's resources.
func (st *BuildSubtree) ResourcesRoot() string {
	return fs.NewFilePath(st.Module.Root, st.Name+".resources").String()
}

// SourceExists returns true if this subtree had a source directory when it was created.
func (st *BuildSubtree) SourceExists() bool {
	return st.sourceExists
}

// ResourcesExist returns true if this subtree had a resources directory when it was created.
func (st *BuildSubtree) ResourcesExist() bool {
	return st.resourcesExist
}

// ClassesDir returns the directory this subtree's compiled classes are written to.
func (st *BuildSubtree) ClassesDir() string {
	return st.Module.set.Layout.ClassesDir(st.Module.Name, st.Name)
}

// TestType returns the type of tests in this subtree, if it contains any runnable ones.
func (st *BuildSubtree) TestType() (TestType, bool) {
	return TestTypeForSubtree(st.Name)
}

// LibraryRoots returns the library directories that contribute to a classpath of the given type.
// The common root always comes first.
func (st *BuildSubtree) LibraryRoots(t ClasspathType) []string {
	roots := []string{}
	if st.commonLibraryRoot != "" {
		roots = append(roots, st.commonLibraryRoot)
	}
	if root, present := st.libraryRoots[t]; present {
		roots = append(roots, root)
	}
	return roots
}

// OwnClasspath returns the classpath elements contributed by this subtree alone: its compiled
// output (if it has source), its resources (at runtime) and the jars in its library roots.
func (st *BuildSubtree) OwnClasspath(t ClasspathType) *fs.PathSet {
	ps := fs.NewPathSet()
	if st.sourceExists {
		ps.Add(st.ClassesDir())
	}
	if st.resourcesExist && t == RuntimeClasspath {
		ps.Add(st.ResourcesRoot())
	}
	for _, root := range st.LibraryRoots(t) {
		ps.Add(jarsIn(st.Module.fs(), root))
	}
	return ps
}

// jarsIn returns the jar files in a directory, in lexical order.
// Library directories are read at classpath time since dependency resolution fills them in.
func jarsIn(fsys fs.FS, dir string) []string {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		log.Warning("Can't read library directory %s: %s", dir, err)
		return nil
	}
	jars := []string{}
	for _, entry := range entries {
		if strings.HasSuffix(entry, ".jar") {
			jars = append(jars, filepath.Join(dir, entry))
		}
	}
	sort.Strings(jars)
	return jars
}

// InternalDependencySubtrees returns the subtrees of the same module that this one depends on.
func (st *BuildSubtree) InternalDependencySubtrees() ([]*BuildSubtree, error) {
	ret := make([]*BuildSubtree, len(st.InternalDependencies))
	for i, name := range st.InternalDependencies {
		dep, err := st.Module.Subtree(name)
		if err != nil {
			return nil, err
		}
		ret[i] = dep
	}
	return ret, nil
}

// DependentSubtrees returns the subtree of each module that the owning module depends on that
// this subtree is allowed to compile against. Only direct dependencies are considered unless
// the module set has transitive classpaths enabled.
func (st *BuildSubtree) DependentSubtrees() ([]*BuildSubtree, error) {
	modules, err := st.Module.ClasspathModules()
	if err != nil {
		return nil, err
	}
	ret := make([]*BuildSubtree, len(modules))
	for i, m := range modules {
		dep, err := m.Subtree(st.ExternalDependencyLike)
		if err != nil {
			return nil, err
		}
		ret[i] = dep
	}
	return ret, nil
}

// ModuleOnlyClasspath returns this subtree's own classpath followed by that of each of its
// internal dependencies.
func (st *BuildSubtree) ModuleOnlyClasspath(t ClasspathType) (*fs.PathSet, error) {
	deps, err := st.InternalDependencySubtrees()
	if err != nil {
		return nil, err
	}
	ps := st.OwnClasspath(t)
	for _, dep := range deps {
		ps.Append(dep.OwnClasspath(t))
	}
	return ps, nil
}

// FullClasspath returns the module-only classpath followed by the module-only classpath of
// each dependent subtree.
func (st *BuildSubtree) FullClasspath(t ClasspathType) (*fs.PathSet, error) {
	ps, err := st.ModuleOnlyClasspath(t)
	if err != nil {
		return nil, err
	}
	deps, err := st.DependentSubtrees()
	if err != nil {
		return nil, err
	}
	for _, dep := range deps {
		depPath, err := dep.ModuleOnlyClasspath(t)
		if err != nil {
			return nil, err
		}
		ps.Append(depPath)
	}
	return ps, nil
}

// Classpath returns the classpath of the given scope and type.
func (st *BuildSubtree) Classpath(scope ClasspathScope, t ClasspathType) (*fs.PathSet, error) {
	if scope == Full {
		return st.FullClasspath(t)
	}
	return st.ModuleOnlyClasspath(t)
}

// VariantNames returns the names of the variants this subtree has libraries for, sorted.
func (st *BuildSubtree) VariantNames() []string {
	names := make([]string, 0, len(st.variants))
	for name := range st.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VariantValues returns the values of the given variant this subtree has libraries for, sorted.
func (st *BuildSubtree) VariantValues(name string) []string {
	values := make([]string, 0, len(st.variants[name]))
	for value := range st.variants[name] {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}

// VariantLibraries returns the jars this subtree alone has for the given variant value.
func (st *BuildSubtree) VariantLibraries(name, value string) *fs.PathSet {
	ps := fs.NewPathSet()
	if dir, present := st.variants[name][value]; present {
		ps.Add(jarsIn(st.Module.fs(), dir))
	}
	return ps
}

func (st *BuildSubtree) moduleOnlyVariantLibraries(name, value string) (*fs.PathSet, error) {
	deps, err := st.InternalDependencySubtrees()
	if err != nil {
		return nil, err
	}
	ps := st.VariantLibraries(name, value)
	for _, dep := range deps {
		ps.Append(dep.VariantLibraries(name, value))
	}
	return ps, nil
}

// FullVariantLibraries returns the variant libraries for the given value across the same set
// of subtrees that FullClasspath covers, in the same order.
func (st *BuildSubtree) FullVariantLibraries(name, value string) (*fs.PathSet, error) {
	ps, err := st.moduleOnlyVariantLibraries(name, value)
	if err != nil {
		return nil, err
	}
	deps, err := st.DependentSubtrees()
	if err != nil {
		return nil, err
	}
	for _, dep := range deps {
		depLibs, err := dep.moduleOnlyVariantLibraries(name, value)
		if err != nil {
			return nil, err
		}
		ps.Append(depLibs)
	}
	return ps, nil
}

// PrependVariantToClasspath puts the variant libraries for the given value at the front of the
// classpath, so they take precedence over anything already in it.
func (st *BuildSubtree) PrependVariantToClasspath(classpath *fs.PathSet, name, value string) error {
	libs, err := st.FullVariantLibraries(name, value)
	if err != nil {
		return err
	}
	if libs.Len() > 0 {
		log.Debug("Prepending %d %s=%s variant libraries to classpath of %s", libs.Len(), name, value, st)
	}
	classpath.Prepend(libs)
	return nil
}

// ResolvedClasspath returns the classpath of the given scope and type with the libraries for
// all the active variants prepended to it.
func (st *BuildSubtree) ResolvedClasspath(scope ClasspathScope, t ClasspathType, variants Variants) (*fs.PathSet, error) {
	ps, err := st.Classpath(scope, t)
	if err != nil {
		return nil, err
	}
	// Prepend in reverse so the first variant name ends up at the very front.
	names := variants.Names()
	for i := len(names) - 1; i >= 0; i-- {
		if err := st.PrependVariantToClasspath(ps, names[i], variants[names[i]]); err != nil {
			return nil, err
		}
	}
	return ps, nil
}
