package fs

import (
	"os"
	"strings"

	"github.com/peterebden/go-deferred-regex"
)

var homeRex = deferredregex.DeferredRegex{Re: "^~(?:/|$)"}

// ExpandHomePath expands a leading ~ in a configured location (e.g. a JDK home) to the
// current user's home directory. ~user forms are left alone.
func ExpandHomePath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return expandHomePathTo(path, home)
}

func expandHomePathTo(path, home string) string {
	return homeRex.ReplaceAllStringFunc(path, func(prefix string) string {
		return strings.Replace(prefix, "~", home, 1)
	})
}
