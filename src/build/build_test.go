package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/fs"
	"github.com/tcbuild/tcbuild/src/target"
)

type fakeCompiler struct {
	mutex    sync.Mutex
	compiled []string
	fail     string

	// unchanged makes compiles succeed without producing anything.
	unchanged bool
}

func (c *fakeCompiler) Compile(ctx context.Context, req core.CompileRequest) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.compiled = append(c.compiled, req.Subtree.String())
	if req.Subtree.String() == c.fail {
		return false, fmt.Errorf("%s: error: cannot find symbol", req.Sources[0])
	}
	return !c.unchanged, nil
}

type fakeRunner struct {
	runs    []string
	reports map[string]string
}

func (r *fakeRunner) RunTests(ctx context.Context, req core.TestRequest) error {
	r.runs = append(r.runs, req.Subtree.String()+" "+strings.Join(req.Classes, " "))
	if report, present := r.reports[req.Subtree.String()]; present {
		if err := os.MkdirAll(req.ResultsDir, 0755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(req.ResultsDir, "TEST-report.xml"), []byte(report), 0644)
	}
	return nil
}

type fakeResolver struct {
	calls int
}

func (r *fakeResolver) Resolve(ctx context.Context, modules *core.BuildModuleSet) error {
	r.calls++
	return nil
}

type fakePackager struct {
	created   map[string][]core.KitEntry
	published []string
}

func (p *fakePackager) Create(ctx context.Context, dest string, entries []core.KitEntry) (int64, error) {
	p.created[dest] = entries
	return 1024, nil
}

func (p *fakePackager) Publish(ctx context.Context, name, file string) error {
	p.published = append(p.published, name+" "+file)
	return nil
}

type testBuild struct {
	root     string
	bc       *core.BuildContext
	builder  *Builder
	out      bytes.Buffer
	compiler *fakeCompiler
	runner   *fakeRunner
	resolver *fakeResolver
	packager *fakePackager
}

// newTestBuild sets up modules common, app (depending on common, in group web) and tools.
// The model lives in a MemFS but the output directory is real since the targets write to it.
func newTestBuild(t *testing.T) *testBuild {
	root := t.TempDir()
	p := func(s string) string { return root + "/" + s }
	fsys := fs.NewMemFS(
		p("common/src/com/example/common/Util.java"),
		p("common/tests.unit/com/example/common/UtilTest.java"),
		p("common/lib/guava.jar"),
		p("app/src/com/example/app/Main.java"),
		p("app/tests.unit/com/example/app/MainTest.java"),
		p("app/tests.system/com/example/app/ServerTest.java"),
		p("app/lib.runtime/logback.jar"),
		p("tools/src/com/example/tools/Tool.java"),
		p("tools/tests.unit/"),
	)
	fsys.AddFile(p("smoke.tests"), "MainTest\nNoSuchTest\n")
	config := core.DefaultConfiguration()
	config.JDK = map[string]*core.JDKConfig{"java8": {}}
	require.NoError(t, config.ApplyOverride("kit.server.module", "app"))
	require.NoError(t, config.ApplyOverride("kit.server.module", "common"))
	require.NoError(t, config.ApplyOverride("kit.tools.module", "tools"))
	require.NoError(t, config.ApplyOverride("testlist.smoke.pattern", "common:UtilTest"))
	require.NoError(t, config.ApplyOverride("testlist.smoke.pattern", "app:ServerTest"))

	tb := &testBuild{
		root:     root,
		bc:       core.NewBuildContext(config, fsys, root),
		compiler: &fakeCompiler{},
		runner:   &fakeRunner{reports: map[string]string{}},
		resolver: &fakeResolver{},
		packager: &fakePackager{created: map[string][]core.KitEntry{}},
	}
	for _, def := range []core.ModuleDefinition{
		{Name: "common", Root: p("common"), JDK: "java8"},
		{Name: "app", Root: p("app"), JDK: "java8", Dependencies: []string{"common"}, Groups: []string{"web"}},
		{Name: "tools", Root: p("tools"), JDK: "java8", Dependencies: []string{"app"}},
	} {
		_, err := tb.bc.Modules.Add(def)
		require.NoError(t, err)
	}
	tb.bc.Compiler = tb.compiler
	tb.bc.TestRunner = tb.runner
	tb.bc.Resolver = tb.resolver
	tb.bc.Packager = tb.packager
	tb.builder = New(context.Background(), tb.bc, &tb.out)
	return tb
}

func (tb *testBuild) run(args ...string) error {
	return tb.builder.Run(args)
}

func TestCompileInDependencyOrder(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("compile_module", "tools"))
	assert.Equal(t, []string{
		"common/src", "common/tests.unit",
		"app/src", "app/tests.unit", "app/tests.system",
		"tools/src",
	}, tb.compiler.compiled)
	assert.Equal(t, 1, tb.resolver.calls)
	assert.True(t, fs.IsDirectory(tb.bc.Layout.OutputDir))
}

func TestCompileOnlyOnce(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("compile_module", "app", "check", "dist"))
	assert.Equal(t, 6, len(tb.compiler.compiled))
	assert.Equal(t, 1, tb.resolver.calls)
	assert.Equal(t, 6, tb.bc.Results.Passes(core.CompileResult))
}

func TestSourceUpdated(t *testing.T) {
	tb := newTestBuild(t)
	m, err := tb.bc.Modules.Module("common")
	require.NoError(t, err)
	assert.False(t, m.SourceUpdated())
	require.NoError(t, tb.run("compile_module", "common"))
	assert.True(t, m.SourceUpdated())
}

func TestCompileFailure(t *testing.T) {
	tb := newTestBuild(t)
	tb.compiler.fail = "common/src"
	err := tb.run("check")
	assert.ErrorIs(t, err, ErrBuildFailed)
	assert.Equal(t, []string{"common/src"}, tb.compiler.compiled)
	assert.Equal(t, 1, tb.bc.Results.FailureCount())
	assert.Contains(t, tb.bc.Results.FailureMessages()[0], "cannot find symbol")
	assert.Empty(t, tb.runner.runs)
}

func TestCompileCarriesOnPastFailedModule(t *testing.T) {
	tb := newTestBuild(t)
	tb.bc.FS.(*fs.MemFS).Add(tb.root+"/standalone/src/com/example/standalone/Lib.java", false)
	_, err := tb.bc.Modules.Add(core.ModuleDefinition{Name: "standalone", Root: tb.root + "/standalone", JDK: "java8"})
	require.NoError(t, err)
	tb.compiler.fail = "common/tests.unit"

	err = tb.run("compile")
	assert.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, err.Error(), "app, common, tools didn't compile")
	assert.ElementsMatch(t, []string{"common/src", "common/tests.unit", "standalone/src"}, tb.compiler.compiled)
	assert.Equal(t, 1, tb.bc.Results.FailureCount())
	assert.Equal(t, 2, tb.bc.Results.Passes(core.CompileResult))
}

func TestCompileModuleSkipsDependentsOfFailure(t *testing.T) {
	tb := newTestBuild(t)
	tb.compiler.fail = "app/src"
	err := tb.run("compile_module", "tools")
	assert.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, err.Error(), "tools depends on app")
	assert.Equal(t, []string{"common/src", "common/tests.unit", "app/src"}, tb.compiler.compiled)

	// A fresh run forgets the earlier failure.
	tb.compiler.fail = ""
	tb.compiler.compiled = nil
	require.NoError(t, tb.run("compile_module", "tools"))
	assert.Contains(t, tb.compiler.compiled, "tools/src")
}

func TestCheck(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("check"))
	assert.Equal(t, []string{
		"common/tests.unit com.example.common.UtilTest",
		"app/tests.unit com.example.app.MainTest",
		"app/tests.system com.example.app.ServerTest",
	}, tb.runner.runs)
	assert.Equal(t, 3, tb.bc.Results.Passes(core.TestResult))
}

func TestCheckSynthesisedGroupAndType(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("check_web_system", "check_unit"))
	assert.Equal(t, []string{
		"app/tests.system com.example.app.ServerTest",
		"common/tests.unit com.example.common.UtilTest",
		"app/tests.unit com.example.app.MainTest",
	}, tb.runner.runs)
	assert.Equal(t, 6, len(tb.compiler.compiled))
}

func TestCheckUnknownGroup(t *testing.T) {
	tb := newTestBuild(t)
	err := tb.run("check_wbe_unit")
	assert.ErrorIs(t, err, target.ErrNoSuchTarget)
	assert.ErrorIs(t, err, core.ErrNoSuchGroup)
	assert.Empty(t, tb.compiler.compiled)
}

func TestCheckModule(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("check_module", "app", "unit"))
	assert.Equal(t, []string{"app/tests.unit com.example.app.MainTest"}, tb.runner.runs)

	err := tb.run("check_module", "ap")
	assert.ErrorIs(t, err, core.ErrNoSuchModule)
}

func TestCheckList(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("check_list", "smoke"))
	assert.Equal(t, []string{
		"common/tests.unit com.example.common.UtilTest",
		"app/tests.system com.example.app.ServerTest",
	}, tb.runner.runs)

	err := tb.run("check_list", "smoek")
	assert.ErrorIs(t, err, ErrNoSuchTestList)
	assert.Contains(t, err.Error(), "smoke")
}

func TestCheckFileRecordsMismatches(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("check_file", "smoke.tests"))
	assert.Equal(t, []string{"app/tests.unit com.example.app.MainTest"}, tb.runner.runs)
	assert.Equal(t, []string{"Test pattern NoSuchTest didn't match any test classes"}, tb.bc.Results.Mismatches())
	assert.Equal(t, 1, tb.bc.Results.FailureCount())
}

func TestCheckOne(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("check_one", "com.example.**", "common"))
	assert.Equal(t, []string{"common/tests.unit com.example.common.UtilTest"}, tb.runner.runs)
}

func TestTestFailuresAreRecorded(t *testing.T) {
	tb := newTestBuild(t)
	tb.runner.reports["app/tests.unit"] = `<testsuite name="com.example.app.MainTest">
  <testcase name="testMain" classname="com.example.app.MainTest"><failure message="nope"/></testcase>
  <testcase name="testOther" classname="com.example.app.MainTest"/>
</testsuite>`
	require.NoError(t, tb.run("check"))
	assert.Equal(t, 3, len(tb.runner.runs))
	assert.Equal(t, 1, tb.bc.Results.Failures(core.TestResult))
	assert.Contains(t, tb.bc.Results.FailureMessages()[0], "1 of 2 tests failed")
}

func TestDist(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("dist"))
	kits := tb.bc.Layout.KitsDir()
	assert.Equal(t, 2, len(tb.packager.created))
	assert.Contains(t, tb.packager.created, filepath.Join(kits, "server.tar.xz"))
	assert.Contains(t, tb.packager.created, filepath.Join(kits, "tools.tar.xz"))
	assert.Equal(t, 2, tb.bc.Results.Passes(core.PackageResult))
}

func TestCreatePackageSkipsUpToDateKit(t *testing.T) {
	tb := newTestBuild(t)
	dest := filepath.Join(tb.bc.Layout.KitsDir(), "server.tar.xz")
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0755))
	require.NoError(t, os.WriteFile(dest, []byte("kit"), 0644))

	tb.compiler.unchanged = true
	require.NoError(t, tb.run("create_package", "server"))
	assert.Empty(t, tb.packager.created, "Nothing recompiled so the existing kit stands")

	// The tools kit doesn't exist yet so it's created regardless.
	require.NoError(t, tb.run("create_package", "tools"))
	assert.Contains(t, tb.packager.created, filepath.Join(tb.bc.Layout.KitsDir(), "tools.tar.xz"))

	tb.compiler.unchanged = false
	require.NoError(t, tb.run("create_package", "server"))
	assert.Contains(t, tb.packager.created, dest)
}

func TestCreateAndPublish(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("create_server", "publish_server"))
	dest := filepath.Join(tb.bc.Layout.KitsDir(), "server.tar.xz")
	entries := tb.packager.created[dest]
	require.NotEmpty(t, entries)
	assert.Equal(t, "app/classes", entries[0].Path)
	assert.Equal(t, []string{"server " + dest}, tb.packager.published)
	assert.Equal(t, 1, tb.bc.Results.Passes(core.PackageResult))

	err := tb.run("create_sever")
	assert.ErrorIs(t, err, ErrNoSuchKit)
	assert.Contains(t, err.Error(), "server")
}

func TestShowClasspath(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("show_classpath", "app", "src", "runtime"))
	assert.Equal(t, strings.Join([]string{
		tb.bc.Layout.ClassesDir("app", "src"),
		filepath.Join(tb.root, "app/lib.runtime/logback.jar"),
		tb.bc.Layout.ClassesDir("common", "src"),
		filepath.Join(tb.root, "common/lib/guava.jar"),
	}, "\n")+"\n", tb.out.String())
}

func TestShowModulesAndGroups(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("show_modules", "show_groups"))
	out := tb.out.String()
	assert.Contains(t, out, "app (jdk: java8)\n  dependencies: common\n  groups: web\n")
	assert.Contains(t, out, "all: common app tools\n")
	assert.Contains(t, out, "web: app\n")
}

func TestShowTargets(t *testing.T) {
	tb := newTestBuild(t)
	require.NoError(t, tb.run("targets"))
	assert.Contains(t, tb.out.String(), "check_one <pattern> [module]")
	assert.Contains(t, tb.out.String(), "create_<kit>")
}

func TestClean(t *testing.T) {
	tb := newTestBuild(t)
	out := tb.bc.Layout.OutputDir
	require.NoError(t, os.MkdirAll(filepath.Join(out, "app", "src.classes"), 0755))
	require.NoError(t, os.WriteFile(core.LockFilePath(tb.bc.Layout), nil, 0644))
	require.NoError(t, tb.run("compile"))
	m, err := tb.bc.Modules.Module("app")
	require.NoError(t, err)
	assert.True(t, m.SourceUpdated())
	require.NoError(t, tb.run("clean"))
	assert.False(t, fs.PathExists(filepath.Join(out, "app")))
	assert.True(t, fs.PathExists(core.LockFilePath(tb.bc.Layout)))
	assert.False(t, m.SourceUpdated())
}

func TestUnknownTarget(t *testing.T) {
	tb := newTestBuild(t)
	err := tb.run("compil")
	assert.ErrorIs(t, err, target.ErrNoSuchTarget)
	assert.Contains(t, err.Error(), "compile")
}
