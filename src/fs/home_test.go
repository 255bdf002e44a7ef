package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandHomePath(t *testing.T) {
	assert.Equal(t, "/home/me/jdks/17", expandHomePathTo("~/jdks/17", "/home/me"))
	assert.Equal(t, "/home/me", expandHomePathTo("~", "/home/me"))
	assert.Equal(t, "/opt/jdk~17", expandHomePathTo("/opt/jdk~17", "/home/me"))
	assert.Equal(t, "~someone/jdk", expandHomePathTo("~someone/jdk", "/home/me"))
	assert.Equal(t, "", expandHomePathTo("", "/home/me"))
}
