package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// A ResultKind identifies what sort of step a Result came from.
type ResultKind string

// The kinds of step we record results for.
const (
	ResolveResult ResultKind = "resolve"
	CompileResult ResultKind = "compile"
	TestResult    ResultKind = "test"
	PackageResult ResultKind = "package"
	PublishResult ResultKind = "publish"
)

// A Result records the outcome of one external step, e.g. compiling a subtree or running one
// set of tests.
type Result struct {
	Kind     ResultKind
	Name     string
	Duration time.Duration
	// Err is nil if the step succeeded.
	Err error
}

// Success returns true if this step succeeded.
func (r Result) Success() bool {
	return r.Err == nil
}

// BuildResults accumulates the outcomes of a run. Failures here don't abort the run; they're
// reported together at the end and their count is the process' exit code.
// It's safe for concurrent use.
type BuildResults struct {
	Start time.Time

	mutex      sync.Mutex
	results    []Result
	mismatches []string
	errs       *multierror.Error
}

// NewBuildResults creates a new, empty set of results starting now.
func NewBuildResults() *BuildResults {
	return &BuildResults{Start: time.Now()}
}

// Add records the result of a step.
func (br *BuildResults) Add(result Result) {
	br.mutex.Lock()
	defer br.mutex.Unlock()
	br.results = append(br.results, result)
	if result.Err != nil {
		br.errs = multierror.Append(br.errs, fmt.Errorf("%s %s failed: %w", result.Kind, result.Name, result.Err))
	}
}

// AddMismatch records a validation mismatch, e.g. a test pattern that didn't match any classes.
func (br *BuildResults) AddMismatch(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Warning("%s", msg)
	br.mutex.Lock()
	defer br.mutex.Unlock()
	br.mismatches = append(br.mismatches, msg)
	br.errs = multierror.Append(br.errs, fmt.Errorf("%s", msg))
}

// Results returns a copy of all the results recorded so far.
func (br *BuildResults) Results() []Result {
	br.mutex.Lock()
	defer br.mutex.Unlock()
	return append([]Result{}, br.results...)
}

// Mismatches returns all the validation mismatches recorded so far.
func (br *BuildResults) Mismatches() []string {
	br.mutex.Lock()
	defer br.mutex.Unlock()
	return append([]string{}, br.mismatches...)
}

// Passes returns the number of successful results of the given kind.
func (br *BuildResults) Passes(kind ResultKind) int {
	return br.count(kind, true)
}

// Failures returns the number of failed results of the given kind.
func (br *BuildResults) Failures(kind ResultKind) int {
	return br.count(kind, false)
}

func (br *BuildResults) count(kind ResultKind, success bool) int {
	br.mutex.Lock()
	defer br.mutex.Unlock()
	n := 0
	for _, r := range br.results {
		if r.Kind == kind && r.Success() == success {
			n++
		}
	}
	return n
}

// FailureCount returns the total number of failures and mismatches recorded.
func (br *BuildResults) FailureCount() int {
	br.mutex.Lock()
	defer br.mutex.Unlock()
	if br.errs == nil {
		return 0
	}
	return len(br.errs.Errors)
}

// Errors returns every failure recorded so far as a single error, or nil if there weren't any.
func (br *BuildResults) Errors() error {
	br.mutex.Lock()
	defer br.mutex.Unlock()
	return br.errs.ErrorOrNil()
}

// FailureMessages returns the message of each failure, in the order they were recorded.
func (br *BuildResults) FailureMessages() []string {
	br.mutex.Lock()
	defer br.mutex.Unlock()
	if br.errs == nil {
		return nil
	}
	msgs := make([]string, len(br.errs.Errors))
	for i, err := range br.errs.Errors {
		msgs[i] = err.Error()
	}
	return msgs
}

// Elapsed returns the time since the results were created.
func (br *BuildResults) Elapsed() time.Duration {
	return time.Since(br.Start)
}
