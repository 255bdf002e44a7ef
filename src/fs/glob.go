package fs

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// A Matcher matches slash-separated paths against a pattern.
type Matcher interface {
	Match(name string) bool
}

type builtInGlob string

func (p builtInGlob) Match(name string) bool {
	matched, _ := filepath.Match(string(p), name)
	return matched
}

type regexGlob struct {
	regex *regexp.Regexp
}

func (r regexGlob) Match(name string) bool {
	return r.regex.MatchString(name)
}

// NewMatcher converts an Ant-style pattern into a Matcher. Patterns containing ** are compiled
// into a regex; anything else uses filepath.Match since it's far more efficient.
func NewMatcher(pattern string) (Matcher, error) {
	if !strings.Contains(pattern, "**") {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		return builtInGlob(pattern), nil
	}
	regex, err := regexp.Compile(toRegexString(pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %s: %w", pattern, err)
	}
	return regexGlob{regex: regex}, nil
}

var regexEscaper = strings.NewReplacer(
	"+", "\\+", ".", "\\.", "$", "\\$", "^", "\\^",
	"(", "\\(", ")", "\\)", "|", "\\|", "{", "\\{", "}", "\\}",
)

func toRegexString(pattern string) string {
	pattern = regexEscaper.Replace(pattern)
	pattern = strings.ReplaceAll(pattern, "?", "[^/]")        // match ? as any single char
	pattern = strings.ReplaceAll(pattern, "*", "[^/]*")       // handle single (all) * components
	pattern = strings.ReplaceAll(pattern, "[^/]*[^/]*", ".*") // handle ** components
	pattern = strings.ReplaceAll(pattern, "/.*/", "/(.*/)?")  // Allow ** to match zero directories
	if strings.HasPrefix(pattern, ".*/") {
		pattern = "(.*/)?" + pattern[3:] // including a leading **/
	}
	return "^" + pattern + "$"
}
