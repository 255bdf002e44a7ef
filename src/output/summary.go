// Package output prints the summary at the end of a run.
package output

import (
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/tcbuild/tcbuild/src/core"
)

// MaxExitCode is the largest exit code PrintSummary returns.
const MaxExitCode = 255

// PrintSummary prints a summary of a run: what passed and failed at each step, any
// validation mismatches and every failure reason verbatim.
// It returns the number of failures, which tcbuild uses as its exit code, capped at
// MaxExitCode since exit statuses are truncated to a byte.
func PrintSummary(w io.Writer, id string, results *core.BuildResults, coloured bool) int {
	elapsed := results.Elapsed().Round(time.Millisecond)
	printf(w, coloured, "\n\x1b[1mBuild %s finished in %s\x1b[0m\n", id, elapsed)
	for _, kind := range []core.ResultKind{core.ResolveResult, core.CompileResult, core.TestResult, core.PackageResult, core.PublishResult} {
		passes, failures := results.Passes(kind), results.Failures(kind)
		if passes+failures == 0 {
			continue
		}
		printf(w, coloured, "  %-8s %s passed", kind, humanize.Comma(int64(passes)))
		if failures > 0 {
			printf(w, coloured, ", \x1b[31m%s failed\x1b[0m", humanize.Comma(int64(failures)))
		}
		printf(w, coloured, " (%s)\n", totalDuration(results, kind).Round(time.Millisecond))
	}
	if mismatches := results.Mismatches(); len(mismatches) > 0 {
		printf(w, coloured, "\x1b[33m%s:\x1b[0m\n", english.Plural(len(mismatches), "validation mismatch", "validation mismatches"))
		for _, m := range mismatches {
			printf(w, coloured, "  %s\n", m)
		}
	}
	failures := results.FailureCount()
	if failures == 0 {
		printf(w, coloured, "\x1b[32mSuccess\x1b[0m\n")
		return 0
	}
	printf(w, coloured, "\x1b[31m%s:\x1b[0m\n", english.Plural(failures, "failure", ""))
	for _, msg := range results.FailureMessages() {
		printf(w, coloured, "  %s\n", msg)
	}
	if failures > MaxExitCode {
		return MaxExitCode
	}
	return failures
}

func totalDuration(results *core.BuildResults, kind core.ResultKind) time.Duration {
	var d time.Duration
	for _, r := range results.Results() {
		if r.Kind == kind {
			d += r.Duration
		}
	}
	return d
}
