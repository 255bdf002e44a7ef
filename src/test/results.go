// Code for reading back the results of a test run.

package test

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tcbuild/tcbuild/src/fs"
)

// A Status is the outcome of a single test case.
type Status int

// The possible outcomes of a test case.
const (
	Passed Status = iota
	Failed
	Errored
	Skipped
)

func (s Status) String() string {
	switch s {
	case Failed:
		return "failed"
	case Errored:
		return "errored"
	case Skipped:
		return "skipped"
	}
	return "passed"
}

// A Case is the result of one test method.
type Case struct {
	ClassName string
	Name      string
	Status    Status
	Message   string
	Traceback string
	Duration  time.Duration
}

// A Suite is the results of one test class.
type Suite struct {
	Name      string
	Timestamp string
	Duration  time.Duration
	Cases     []Case

	Passes, Failures, Errors, Skips int
}

func (s *Suite) add(c Case) {
	s.Cases = append(s.Cases, c)
	s.Duration += c.Duration
	switch c.Status {
	case Passed:
		s.Passes++
	case Failed:
		s.Failures++
	case Errored:
		s.Errors++
	case Skipped:
		s.Skips++
	}
}

// Tests returns the total number of test cases in this suite.
func (s *Suite) Tests() int {
	return len(s.Cases)
}

// Collapse adds the results of another suite to this one.
func (s *Suite) Collapse(other Suite) {
	for _, c := range other.Cases {
		s.add(c)
	}
}

// Failed returns the test cases that failed or errored.
func (s *Suite) Failed() []Case {
	ret := []Case{}
	for _, c := range s.Cases {
		if c.Status == Failed || c.Status == Errored {
			ret = append(ret, c)
		}
	}
	return ret
}

// Summary returns a one-line description of these results.
func (s *Suite) Summary() string {
	return fmt.Sprintf("%d tests, %d passed, %d failed, %d errored, %d skipped",
		s.Tests(), s.Passes, s.Failures, s.Errors, s.Skips)
}

// ReadResultsDir reads all the JUnit XML reports (TEST-*.xml) in a directory and collapses
// them into a single suite. Files that don't look like JUnit XML are ignored.
func ReadResultsDir(fsys fs.FS, dir string) (Suite, error) {
	suite := Suite{Name: dir}
	if !fsys.IsDir(dir) {
		return suite, fmt.Errorf("didn't find any test results in %s", dir)
	}
	files := []string{}
	err := fsys.Walk(dir, func(name string, isDir bool) error {
		base := filepath.Base(name)
		if !isDir && strings.HasPrefix(base, "TEST-") && strings.HasSuffix(base, ".xml") {
			files = append(files, name)
		}
		return nil
	})
	if err != nil {
		return suite, err
	}
	sort.Strings(files)
	for _, file := range files {
		data, err := fsys.ReadFile(file)
		if err != nil {
			return suite, err
		} else if !looksLikeJUnitXMLTestResults(data) {
			log.Warning("Ignoring %s, it doesn't look like a JUnit XML report", file)
			continue
		}
		suites, err := parseJUnitXMLTestResults(data)
		if err != nil {
			return suite, fmt.Errorf("error parsing %s: %w", file, err)
		}
		for _, s := range suites {
			suite.Collapse(s)
		}
	}
	return suite, nil
}
