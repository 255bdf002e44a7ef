package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tcbuild/tcbuild/src/fs"
)

// A CompileRequest asks for one subtree to be compiled.
type CompileRequest struct {
	Subtree *BuildSubtree
	JDK     *JDK
	// Sources are the absolute paths of the Java files to compile.
	Sources []string
	// Classpath is the fully resolved compile classpath.
	Classpath *fs.PathSet
	// OutputDir is where the classes are written.
	OutputDir string
	// WorkDir is the directory the compiler runs in.
	WorkDir string
}

// A TestRequest asks for a set of test classes from one subtree to be run.
type TestRequest struct {
	Subtree *BuildSubtree
	JDK     *JDK
	Type    TestType
	// Classes are the fully qualified names of the test classes to run.
	Classes []string
	// Classpath is the fully resolved runtime classpath.
	Classpath *fs.PathSet
	// ResultsDir is where the runner's output is written.
	ResultsDir string
	// WorkDir is the directory the tests run in.
	WorkDir string
}

// A KitEntry is one file or directory going into a kit, at the given path inside it.
type KitEntry struct {
	// Source is the file or directory on disk.
	Source string
	// Path is where it goes inside the kit.
	Path string
}

// A Compiler compiles a subtree's sources.
type Compiler interface {
	// Compile compiles the requested sources. It returns true if any output was produced.
	Compile(ctx context.Context, req CompileRequest) (bool, error)
}

// A TestRunner runs test classes.
type TestRunner interface {
	RunTests(ctx context.Context, req TestRequest) error
}

// A DependencyResolver populates the modules' library directories.
type DependencyResolver interface {
	Resolve(ctx context.Context, modules *BuildModuleSet) error
}

// A Packager builds kits and uploads them.
type Packager interface {
	// Create writes a kit containing the given entries to dest, and returns its size in bytes.
	Create(ctx context.Context, dest string, entries []KitEntry) (int64, error)
	// Publish uploads a previously created kit.
	Publish(ctx context.Context, name, file string) error
}

// A MetricsRecorder receives timings of targets, compiles and test runs.
type MetricsRecorder interface {
	RecordTarget(name string, duration time.Duration, err error)
	RecordCompile(subtree string, duration time.Duration, err error)
	RecordTest(t TestType, duration time.Duration, err error)
	// Stop flushes anything not yet reported.
	Stop()
}

// NopMetrics is a MetricsRecorder that discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordTarget(string, time.Duration, error) {}
func (NopMetrics) RecordCompile(string, time.Duration, error) {}
func (NopMetrics) RecordTest(TestType, time.Duration, error) {}
func (NopMetrics) Stop() {}

// A BuildContext holds everything a run needs. The top level creates one and passes it to
// everything else; nothing here is global.
type BuildContext struct {
	// ID uniquely identifies this run.
	ID       string
	Config   *Configuration
	FS       fs.FS
	Layout   Layout
	Modules  *BuildModuleSet
	JDKs     *JDKSet
	Results  *BuildResults
	Variants Variants

	Compiler   Compiler
	TestRunner TestRunner
	Resolver   DependencyResolver
	Packager   Packager
	Metrics    MetricsRecorder
}

// NewBuildContext creates a new context for a run in the given repo. The module set starts out
// empty; the collaborators must be filled in by the caller.
func NewBuildContext(config *Configuration, fsys fs.FS, repoRoot string) *BuildContext {
	layout := NewLayout(repoRoot, config.Build.OutputDir)
	modules := NewBuildModuleSet(fsys, layout)
	modules.TransitiveClasspath = config.Build.TransitiveClasspath
	return &BuildContext{
		ID:       uuid.New().String(),
		Config:   config,
		FS:       fsys,
		Layout:   layout,
		Modules:  modules,
		JDKs:     NewJDKSet(config),
		Results:  NewBuildResults(),
		Variants: config.Variants(),
		Metrics:  NopMetrics{},
	}
}

// JDKFor returns the JDK the given module uses.
func (bc *BuildContext) JDKFor(m *BuildModule) (*JDK, error) {
	return bc.JDKs.Lookup(m.JDK)
}

// Classpath returns the classpath of a subtree with the active variants applied.
func (bc *BuildContext) Classpath(st *BuildSubtree, scope ClasspathScope, t ClasspathType) (*fs.PathSet, error) {
	return st.ResolvedClasspath(scope, t, bc.Variants)
}
