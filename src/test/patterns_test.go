package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(t *testing.T, pattern, class string) bool {
	p, err := ParsePattern(pattern)
	require.NoError(t, err)
	return p.Match(class)
}

func TestPatternSimpleName(t *testing.T) {
	assert.True(t, match(t, "FooTest", "com.example.FooTest"))
	assert.True(t, match(t, "FooTest", "FooTest"))
	assert.False(t, match(t, "FooTest", "com.example.BarFooTest"))
	assert.True(t, match(t, "*IntegrationTest", "com.example.ServerIntegrationTest"))
	assert.False(t, match(t, "*IntegrationTest", "com.example.ServerTest"))
}

func TestPatternQualifiedName(t *testing.T) {
	assert.True(t, match(t, "com.example.FooTest", "com.example.FooTest"))
	assert.False(t, match(t, "com.example.FooTest", "org.example.FooTest"))
	assert.True(t, match(t, "com.example.*", "com.example.FooTest"))
	assert.False(t, match(t, "com.example.*", "com.example.sub.FooTest"))
	assert.True(t, match(t, "com.example.**", "com.example.sub.FooTest"))
}

func TestPatternModulePrefix(t *testing.T) {
	p, err := ParsePattern("app:com.example.*")
	require.NoError(t, err)
	assert.Equal(t, "app", p.Module)
	assert.Equal(t, "com.example.*", p.Glob)
	assert.Equal(t, "app:com.example.*", p.String())
	assert.True(t, p.AppliesTo("app"))
	assert.False(t, p.AppliesTo("common"))

	p, err = ParsePattern("FooTest")
	require.NoError(t, err)
	assert.True(t, p.AppliesTo("common"))
}

func TestEmptyPattern(t *testing.T) {
	_, err := ParsePattern("app:")
	assert.Error(t, err)
	_, err = ParsePatterns([]string{"FooTest", ""})
	assert.Error(t, err)
}
