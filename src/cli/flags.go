// Package cli contains helper functions related to flag parsing and logging.
package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/coreos/go-semver/semver"
	cli "github.com/peterebden/go-cli-init/v5/flags"
	clilogging "github.com/peterebden/go-cli-init/v5/logging"
	"github.com/thought-machine/go-flags"
)

// MinVerbosity is the minimum verbosity we support.
const MinVerbosity = clilogging.MinVerbosity

// MaxVerbosity is the maximum verbosity we support.
const MaxVerbosity = clilogging.MaxVerbosity

// ParseFlags parses the given arguments (the first of which is the program name) into data.
// It returns the parser, any extra arguments, and any error encountered.
// It may exit if certain options are encountered (eg. --help).
func ParseFlags(appname string, data interface{}, args []string) (*flags.Parser, []string, error) {
	return cli.ParseFlags(appname, data, args, flags.HelpFlag|flags.PassDoubleDash, nil, nil)
}

// ParseFlagsFromArgsOrDie is similar to ParseFlags but dies if unsuccessful.
// It returns the active command if there is one, and any extra arguments.
func ParseFlagsFromArgsOrDie(appname string, data interface{}, args []string) (string, []string) {
	parser, extraArgs, err := ParseFlags(appname, data, args)
	if err != nil {
		log.Fatalf("%s", err)
	}
	if parser.Active == nil {
		return "", extraArgs
	}
	return ActiveCommand(parser.Command), extraArgs
}

// ActiveCommand returns the name of the currently active command.
func ActiveCommand(command *flags.Command) string {
	return cli.ActiveCommand(command)
}

// A Duration is used for flags that represent a time duration; it's just a wrapper
// around time.Duration that implements the flags.Unmarshaler and
// encoding.TextUnmarshaler interfaces.
type Duration = cli.Duration

// A URL is used for flags or config fields that represent a URL.
// It's just a string because it's more convenient that way.
type URL string

// UnmarshalFlag implements the flags.Unmarshaler interface.
func (u *URL) UnmarshalFlag(in string) error {
	if _, err := url.Parse(in); err != nil {
		return flagsError(err)
	}
	*u = URL(in)
	return nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (u *URL) UnmarshalText(text []byte) error {
	return u.UnmarshalFlag(string(text))
}

// String implements the fmt.Stringer interface
func (u URL) String() string {
	return string(u)
}

// A Version is an extension to semver.Version extending it with the ability to
// recognise >= prefixes.
type Version struct {
	semver.Version
	IsGTE bool
	IsSet bool
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (v *Version) UnmarshalText(text []byte) error {
	return v.UnmarshalFlag(string(text))
}

// UnmarshalFlag implements the flags.Unmarshaler interface.
func (v *Version) UnmarshalFlag(in string) error {
	if strings.HasPrefix(in, ">=") {
		v.IsGTE = true
		in = strings.TrimSpace(strings.TrimPrefix(in, ">="))
	}
	v.IsSet = true
	return v.Set(in)
}

// String implements the fmt.Stringer interface
func (v Version) String() string {
	if v.IsGTE {
		return ">=" + v.Version.String()
	}
	return v.Version.String()
}

// Accepts returns true if the given version satisfies this one; an unset version accepts anything.
func (v *Version) Accepts(current semver.Version) bool {
	if !v.IsSet {
		return true
	} else if v.IsGTE {
		return !current.LessThan(v.Version)
	}
	return current.Equal(v.Version)
}

// flagsError converts an error to a flags.Error, which is required for flag parsing.
func flagsError(err error) error {
	if err == nil {
		return nil
	}
	return &flags.Error{Type: flags.ErrMarshal, Message: err.Error()}
}

// A KeyValue is a key=value token from the command line, which tcbuild treats as a
// configuration override.
type KeyValue struct {
	Key, Value string
}

// SplitKeyValues separates key=value tokens from other arguments, preserving the order of both.
func SplitKeyValues(args []string) (rest []string, kvs []KeyValue) {
	for _, arg := range args {
		if idx := strings.IndexByte(arg, '='); idx > 0 {
			kvs = append(kvs, KeyValue{Key: arg[:idx], Value: arg[idx+1:]})
		} else {
			rest = append(rest, arg)
		}
	}
	return rest, kvs
}

// String implements the fmt.Stringer interface.
func (kv KeyValue) String() string {
	return fmt.Sprintf("%s=%s", kv.Key, kv.Value)
}
