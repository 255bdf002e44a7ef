package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcbuild/tcbuild/src/core"
)

func newSelector(t *testing.T) (*Selector, *core.BuildResults) {
	fsys, set := newTestSet(t)
	results := core.NewBuildResults()
	fsys.AddFile("/repo/tests.list", "# smoke tests\nMainTest\n\napp:*IntegrationTest\nNoSuchTest\n")
	fsys.AddFile("/repo/empty.list", "# nothing here\n")
	return NewSelector(fsys, set, results, "Test"), results
}

func describe(selections []Selection) map[string][]string {
	ret := map[string][]string{}
	for _, sel := range selections {
		ret[sel.Subtree.String()] = sel.Classes
	}
	return ret
}

func TestSelectAll(t *testing.T) {
	s, results := newSelector(t)
	selections, err := s.All("")
	require.NoError(t, err)
	assert.Equal(t, 5, Count(selections))
	assert.Equal(t, 3, len(selections))
	assert.Empty(t, results.Mismatches())

	selections, err = s.All(core.SystemTests)
	require.NoError(t, err)
	require.Equal(t, 1, len(selections))
	assert.Equal(t, core.SystemTests, selections[0].Type)
	assert.Equal(t, []string{"com.example.app.ClientTest", "com.example.app.ServerIntegrationTest"}, selections[0].Classes)
}

func TestSelectModule(t *testing.T) {
	s, _ := newSelector(t)
	selections, err := s.Module("common", core.UnitTests)
	require.NoError(t, err)
	assert.Equal(t, 2, Count(selections))

	_, err = s.Module("comon", "")
	assert.ErrorIs(t, err, core.ErrNoSuchModule)
}

func TestSelectGroup(t *testing.T) {
	s, results := newSelector(t)
	selections, err := s.Group("web", "")
	require.NoError(t, err)
	assert.Equal(t, 3, Count(selections))
	// A module without tests isn't a mismatch.
	assert.Empty(t, results.Mismatches())

	_, err = s.Group("nope", "")
	assert.ErrorIs(t, err, core.ErrNoSuchGroup)
}

func TestSelectOne(t *testing.T) {
	s, results := newSelector(t)
	selections, err := s.One("com.example.common.**", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.common.UtilTest", "com.example.common.io.StreamTest"}, selections[0].Classes)

	selections, err = s.One("MainTest", "common")
	require.NoError(t, err)
	assert.Empty(t, selections)
	assert.Equal(t, 1, len(results.Mismatches()))
	assert.Contains(t, results.Mismatches()[0], "MainTest")
}

func TestSelectFile(t *testing.T) {
	s, results := newSelector(t)
	selections, err := s.File("/repo/tests.list")
	require.NoError(t, err)
	assert.Equal(t, 2, len(selections))
	assert.Equal(t, 2, Count(selections))
	assert.Equal(t, []string{"Test pattern NoSuchTest didn't match any test classes"}, results.Mismatches())

	_, err = s.File("/repo/missing.list")
	assert.Error(t, err)
}

func TestSelectEmptyFile(t *testing.T) {
	s, results := newSelector(t)
	selections, err := s.File("/repo/empty.list")
	assert.NoError(t, err)
	assert.Empty(t, selections)
	assert.Equal(t, 1, len(results.Mismatches()))
}

func TestSelectUnknownModuleInPattern(t *testing.T) {
	s, _ := newSelector(t)
	_, err := s.Patterns([]string{"ap:FooTest"})
	assert.ErrorIs(t, err, core.ErrNoSuchModule)
}

func TestSelectRepeatedAndOverlappingPatterns(t *testing.T) {
	s, results := newSelector(t)
	selections, err := s.Patterns([]string{"MainTest", "MainTest"})
	require.NoError(t, err)
	assert.Equal(t, 1, Count(selections))
	assert.Empty(t, results.Mismatches())

	// Both patterns match the same class; neither is reported as matching nothing.
	selections, err = s.Patterns([]string{"MainTest", "app:MainTest"})
	require.NoError(t, err)
	assert.Equal(t, 1, Count(selections))
	assert.Empty(t, results.Mismatches())
}
