package fs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathSetSkipsEmpty(t *testing.T) {
	ps := NewPathSet("a.jar", "", []string{"b.jar", ""}, nil)
	assert.Equal(t, []string{"a.jar", "b.jar"}, ps.Paths())
}

func TestPathSetKeepsDuplicates(t *testing.T) {
	ps := NewPathSet("a.jar", "b.jar", "a.jar")
	assert.Equal(t, []string{"a.jar", "b.jar", "a.jar"}, ps.Paths())
	assert.Equal(t, 3, ps.Len())
}

func TestPathSetAppend(t *testing.T) {
	ps := NewPathSet("a.jar")
	ps.Append(NewPathSet("b.jar", "c.jar")).Add(NewFilePath("d", "e.jar"))
	assert.Equal(t, []string{"a.jar", "b.jar", "c.jar", NewFilePath("d/e.jar").String()}, ps.Paths())
}

func TestPathSetPrepend(t *testing.T) {
	ps := NewPathSet("a.jar", "b.jar")
	ps.Prepend(NewPathSet("v1.jar", "v2.jar"))
	assert.Equal(t, []string{"v1.jar", "v2.jar", "a.jar", "b.jar"}, ps.Paths())
	ps.Prepend(NewPathSet())
	assert.Equal(t, 4, ps.Len())
}

func TestPathSetPathsIsACopy(t *testing.T) {
	ps := NewPathSet("a.jar")
	paths := ps.Paths()
	paths[0] = "b.jar"
	assert.Equal(t, []string{"a.jar"}, ps.Paths())
}

func TestPathSetString(t *testing.T) {
	ps := NewPathSet("a.jar", "b.jar")
	assert.Equal(t, "a.jar"+string(os.PathListSeparator)+"b.jar", ps.String())
	assert.Equal(t, "a.jar b.jar", ps.Join(" "))
	assert.True(t, ps.Contains("b.jar"))
	assert.False(t, ps.Contains("c.jar"))
}
