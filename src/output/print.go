package output

import (
	"fmt"
	"io"

	"github.com/tcbuild/tcbuild/src/cli"
)

// printf prints to the given writer with some niceties around ANSI formatting codes,
// which are stripped unless coloured is true.
func printf(w io.Writer, coloured bool, format string, args ...interface{}) {
	if !coloured {
		format = cli.StripAnsi.ReplaceAllString(format, "")
	}
	fmt.Fprintf(w, format, args...)
}
