package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/fs"
)

const modulesDef = `
modules:
  - common:
      options:
        jdk: java8
  - app:
      dependencies: [common]
      options: {jdk: java8, javadoc: true, aspectj: true}
  - web:
      dependencies:
        - app
        - common
      options:
        jdk: java17
        module: true
module-groups:
  web: [web, app]
  server: [app]
additional-files:
  - extra.def.yml
  - missing.def.yml
`

const extraDef = `
modules:
  - tools:
      dependencies: [common]
      options: {jdk: java8}
module-groups:
  server: [tools]
`

func newFS() *fs.MemFS {
	fsys := fs.NewMemFS("/repo/common/src/", "/repo/app/src/", "/repo/web/src/", "/repo/tools/")
	fsys.AddFile("/repo/modules.def.yml", modulesDef)
	fsys.AddFile("/repo/extra.def.yml", extraDef)
	return fsys
}

func build(t *testing.T, fsys fs.FS, manifests ...string) (*core.BuildModuleSet, error) {
	set := core.NewBuildModuleSet(fsys, core.NewLayout("/repo", "build"))
	return set, NewBuilder(fsys, "/repo").Build(set, manifests)
}

func moduleNames(modules []*core.BuildModule) []string {
	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
	}
	return names
}

func TestBuildModules(t *testing.T) {
	set, err := build(t, newFS(), "modules.def.yml")
	require.NoError(t, err)
	assert.Equal(t, []string{"common", "app", "web", "tools"}, set.Names())

	app, err := set.Module("app")
	require.NoError(t, err)
	assert.Equal(t, "/repo/app", app.Root)
	assert.Equal(t, "java8", app.JDK)
	assert.Equal(t, []string{"common"}, app.Dependencies)
	assert.True(t, app.Javadoc)
	assert.True(t, app.AspectJ)
	assert.False(t, app.IsModule)

	web, err := set.Module("web")
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "common"}, web.Dependencies)
	assert.Equal(t, "java17", web.JDK)
	assert.True(t, web.IsModule)
}

func TestBuildGroups(t *testing.T) {
	set, err := build(t, newFS(), "modules.def.yml")
	require.NoError(t, err)
	groups := set.Groups()
	assert.Equal(t, []string{"all", "web", "server"}, groups.Names())

	all, err := groups.Group(core.AllGroup)
	require.NoError(t, err)
	assert.Equal(t, []string{"common", "app", "web", "tools"}, moduleNames(all))
	web, err := groups.Group("web")
	require.NoError(t, err)
	assert.Equal(t, []string{"web", "app"}, moduleNames(web))
	server, err := groups.Group("server")
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "tools"}, moduleNames(server))

	app, err := set.Module("app")
	require.NoError(t, err)
	assert.Equal(t, []string{"web", "server"}, app.Groups)
}

func TestMissingManifestIsSkipped(t *testing.T) {
	set, err := build(t, newFS(), "nope.def.yml", "extra.def.yml")
	require.Error(t, err) // tools depends on common, which isn't defined anywhere
	assert.ErrorIs(t, err, core.ErrNoSuchModule)

	fsys := newFS()
	set, err = build(t, fsys, "nope.def.yml")
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestMissingJDK(t *testing.T) {
	fsys := fs.NewMemFS("/repo/common/")
	fsys.AddFile("/repo/modules.def.yml", "modules:\n  - common:\n      dependencies: []\n")
	_, err := build(t, fsys, "modules.def.yml")
	assert.ErrorIs(t, err, core.ErrInvalidModule)
	assert.Contains(t, err.Error(), "jdk")
}

func TestEmptyModuleDefinition(t *testing.T) {
	fsys := fs.NewMemFS("/repo/common/")
	fsys.AddFile("/repo/modules.def.yml", "modules:\n  - common:\n")
	_, err := build(t, fsys, "modules.def.yml")
	assert.ErrorIs(t, err, core.ErrInvalidModule)
}

func TestDuplicateAcrossManifests(t *testing.T) {
	fsys := newFS()
	fsys.AddFile("/repo/again.def.yml", "modules:\n  - common:\n      options: {jdk: java17}\n")
	_, err := build(t, fsys, "modules.def.yml", "again.def.yml")
	assert.ErrorIs(t, err, core.ErrDuplicateModule)
}

func TestManifestReadOnce(t *testing.T) {
	set, err := build(t, newFS(), "modules.def.yml", "/repo/extra.def.yml")
	require.NoError(t, err)
	assert.Equal(t, 4, set.Len())
}

func TestUnknownGroupMember(t *testing.T) {
	fsys := fs.NewMemFS("/repo/common/")
	fsys.AddFile("/repo/modules.def.yml", `
modules:
  - common: {options: {jdk: java8}}
module-groups:
  web: [comon]
`)
	_, err := build(t, fsys, "modules.def.yml")
	assert.ErrorIs(t, err, core.ErrNoSuchModule)
	assert.Contains(t, err.Error(), "web")
}

func TestCannotRedefineAllGroup(t *testing.T) {
	fsys := fs.NewMemFS("/repo/common/")
	fsys.AddFile("/repo/modules.def.yml", `
modules:
  - common: {options: {jdk: java8}}
module-groups:
  all: [common]
`)
	_, err := build(t, fsys, "modules.def.yml")
	assert.Error(t, err)
}

func TestMalformedManifest(t *testing.T) {
	fsys := fs.NewMemFS("/repo/common/")
	fsys.AddFile("/repo/modules.def.yml", "modules:\n  - common\n")
	_, err := build(t, fsys, "modules.def.yml")
	assert.Error(t, err)

	fsys.AddFile("/repo/modules.def.yml", "modules: [\n")
	_, err = build(t, fsys, "modules.def.yml")
	assert.Error(t, err)
}

func TestDependencyCycle(t *testing.T) {
	fsys := fs.NewMemFS("/repo/a/", "/repo/b/")
	fsys.AddFile("/repo/modules.def.yml", `
modules:
  - a: {dependencies: [b], options: {jdk: java8}}
  - b: {dependencies: [a], options: {jdk: java8}}
`)
	_, err := build(t, fsys, "modules.def.yml")
	var cycle *core.CycleError
	assert.ErrorAs(t, err, &cycle)
}

func TestScenarioA(t *testing.T) {
	fsys := fs.NewMemFS(
		"/repo/common/src/",
		"/repo/common/lib/common-dep.jar",
		"/repo/app/src/",
		"/repo/app/lib/app-dep.jar",
	)
	fsys.AddFile("/repo/modules.def.yml", `
modules:
  - common:
      options: {jdk: java8}
  - app:
      dependencies: [common]
      options: {jdk: java8}
`)
	set, err := build(t, fsys, "modules.def.yml")
	require.NoError(t, err)
	app, err := set.Module("app")
	require.NoError(t, err)
	src, err := app.Subtree(core.SrcSubtree)
	require.NoError(t, err)
	cp, err := src.FullClasspath(core.RuntimeClasspath)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/repo/build/app/src.classes",
		"/repo/app/lib/app-dep.jar",
		"/repo/build/common/src.classes",
		"/repo/common/lib/common-dep.jar",
	}, cp.Paths())
}

func TestLoad(t *testing.T) {
	config := core.DefaultConfiguration()
	require.NoError(t, config.ApplyOverride("jdk.java8.version", "8"))
	bc := core.NewBuildContext(config, newFS(), "/repo")
	err := Load(bc)
	assert.ErrorIs(t, err, core.ErrNoSuchJDK) // web uses java17
	assert.Contains(t, err.Error(), "web")

	require.NoError(t, config.ApplyOverride("jdk.java17.version", "17"))
	bc = core.NewBuildContext(config, newFS(), "/repo")
	assert.NoError(t, Load(bc))
	assert.Equal(t, 4, bc.Modules.Len())
}
