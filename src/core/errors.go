package core

import (
	"errors"
	"fmt"

	"github.com/tcbuild/tcbuild/src/cli"
)

// Errors for failed lookups in the module graph. These are always configuration errors and
// are not recovered from; they're exported so callers can test for them with errors.Is.
var (
	ErrNoSuchModule    = errors.New("no such module")
	ErrNoSuchSubtree   = errors.New("no such subtree")
	ErrNoSuchGroup     = errors.New("no such module group")
	ErrNoSuchJDK       = errors.New("no such JDK")
	ErrNoSuchTestType  = errors.New("no such test type")
	ErrDuplicateModule = errors.New("duplicate module")
	ErrInvalidModule   = errors.New("invalid module")
)

// maxSuggestionDistance is how far a name can be from a real one before we stop suggesting it.
const maxSuggestionDistance = 3

// lookupError wraps one of the sentinel errors above with the name that wasn't found, and
// suggests any similar names that do exist.
func lookupError(sentinel error, name string, known []string) error {
	return fmt.Errorf("%w: %s%s", sentinel, name, cli.PrettyPrintSuggestion(name, known, maxSuggestionDistance))
}
