package output

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tcbuild/tcbuild/src/core"
)

func TestSummarySuccess(t *testing.T) {
	results := core.NewBuildResults()
	results.Add(core.Result{Kind: core.CompileResult, Name: "common/src", Duration: time.Second})
	results.Add(core.Result{Kind: core.CompileResult, Name: "app/src", Duration: 2 * time.Second})
	var buf bytes.Buffer
	assert.Equal(t, 0, PrintSummary(&buf, "1234", results, false))
	out := buf.String()
	assert.Contains(t, out, "Build 1234 finished in")
	assert.Contains(t, out, "compile  2 passed (3s)\n")
	assert.NotContains(t, out, "test ")
	assert.Contains(t, out, "Success\n")
	assert.NotContains(t, out, "\x1b[")
}

func TestSummaryFailures(t *testing.T) {
	results := core.NewBuildResults()
	results.Add(core.Result{Kind: core.CompileResult, Name: "common/src"})
	results.Add(core.Result{Kind: core.TestResult, Name: "app/tests.unit", Err: fmt.Errorf("1 of 2 tests failed")})
	results.AddMismatch("Test pattern %s didn't match any test classes", "NoSuchTest")
	var buf bytes.Buffer
	assert.Equal(t, 2, PrintSummary(&buf, "1234", results, true))
	out := buf.String()
	assert.Contains(t, out, "test     0 passed, \x1b[31m1 failed\x1b[0m")
	assert.Contains(t, out, "1 validation mismatch:")
	assert.Contains(t, out, "  Test pattern NoSuchTest didn't match any test classes\n")
	assert.Contains(t, out, "2 failures:")
	assert.Contains(t, out, "  test app/tests.unit failed: 1 of 2 tests failed\n")
}

func TestSummaryExitCodeIsCapped(t *testing.T) {
	results := core.NewBuildResults()
	for i := 0; i < 256; i++ {
		results.Add(core.Result{Kind: core.TestResult, Name: fmt.Sprintf("mod%d/tests.unit", i), Err: fmt.Errorf("failed")})
	}
	var buf bytes.Buffer
	assert.Equal(t, MaxExitCode, PrintSummary(&buf, "1234", results, false), "256 failures mustn't wrap round to a zero exit code")
	assert.Contains(t, buf.String(), "256 failures:")
}
